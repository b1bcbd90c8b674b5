package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/withushr/approval-engine/internal/application/port"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements read access to the user directory over sqlite
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// GetByID returns the user with the given ID, or nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `
		SELECT id, name, dept_code, job_level, role, created_at
		FROM users
		WHERE id = ?
	`

	user, err := r.scanUser(r.executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FindByRole returns users holding a role, optionally narrowed by department
func (r *UserRepository) FindByRole(ctx context.Context, role entity.Role, deptCode string) ([]*entity.User, error) {
	query := `
		SELECT id, name, dept_code, job_level, role, created_at
		FROM users
		WHERE role = ?
	`
	args := []interface{}{string(role)}
	if deptCode != "" {
		query += " AND dept_code = ?"
		args = append(args, deptCode)
	}
	query += " ORDER BY id"

	return r.queryUsers(ctx, query, args...)
}

// FindByJobLevel returns users at a job level, optionally narrowed by department
func (r *UserRepository) FindByJobLevel(ctx context.Context, jobLevel, deptCode string) ([]*entity.User, error) {
	query := `
		SELECT id, name, dept_code, job_level, role, created_at
		FROM users
		WHERE job_level = ?
	`
	args := []interface{}{jobLevel}
	if deptCode != "" {
		query += " AND dept_code = ?"
		args = append(args, deptCode)
	}
	query += " ORDER BY id"

	return r.queryUsers(ctx, query, args...)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var role string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.DeptCode,
		&user.JobLevel,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = entity.Role(role)
	return &user, nil
}
