package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/withushr/approval-engine/internal/application/port"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
	"github.com/withushr/approval-engine/internal/infrastructure/persistence/sqlite"
)

// LeaveBalanceRepository implements port.LeaveBalanceRepository over sqlite.
// Debit and Credit are single conditional updates so the balance check and
// the mutation cannot race.
type LeaveBalanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLeaveBalanceRepository creates a new leave balance repository
func NewLeaveBalanceRepository(db *sql.DB, logger *zap.Logger) port.LeaveBalanceRepository {
	return &LeaveBalanceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *LeaveBalanceRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// GetByUserID returns the user's balance, or nil when absent
func (r *LeaveBalanceRepository) GetByUserID(ctx context.Context, userID string) (*entity.LeaveBalance, error) {
	query := `
		SELECT user_id, total_days, used_days, updated_at
		FROM leave_balances
		WHERE user_id = ?
	`

	var balance entity.LeaveBalance
	err := r.executor(ctx).QueryRowContext(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.TotalDays,
		&balance.UsedDays,
		&balance.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get leave balance", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &balance, nil
}

// Debit consumes days from the account. The WHERE clause refuses a debit that
// would take the remainder negative; the caller gets a validation error.
func (r *LeaveBalanceRepository) Debit(ctx context.Context, userID string, days float64) error {
	if days <= 0 {
		return workflow.Validationf("debit days must be positive, got %v", days)
	}

	query := `
		UPDATE leave_balances
		SET used_days = used_days + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND total_days - used_days >= ?
	`

	result, err := r.executor(ctx).ExecContext(ctx, query, days, userID, days)
	if err != nil {
		r.logger.Error("Failed to debit leave balance", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to debit leave balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		balance, getErr := r.GetByUserID(ctx, userID)
		if getErr != nil {
			return getErr
		}
		if balance == nil {
			return workflow.NotFoundf("leave balance for user %s not found", userID)
		}
		return workflow.Validationf("insufficient leave balance for user %s: %v days remaining, %v requested",
			userID, balance.RemainingDays(), days)
	}
	return nil
}

// Credit restores days to the account, never below zero used days
func (r *LeaveBalanceRepository) Credit(ctx context.Context, userID string, days float64) error {
	if days <= 0 {
		return workflow.Validationf("credit days must be positive, got %v", days)
	}

	query := `
		UPDATE leave_balances
		SET used_days = MAX(used_days - ?, 0), updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`

	result, err := r.executor(ctx).ExecContext(ctx, query, days, userID)
	if err != nil {
		r.logger.Error("Failed to credit leave balance", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to credit leave balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.NotFoundf("leave balance for user %s not found", userID)
	}
	return nil
}
