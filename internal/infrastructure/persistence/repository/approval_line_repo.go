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

// ApprovalLineRepository implements port.ApprovalLineRepository over sqlite.
// Steps are value rows owned by their line; updates rewrite the whole set.
type ApprovalLineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalLineRepository creates a new approval line repository
func NewApprovalLineRepository(db *sql.DB, logger *zap.Logger) port.ApprovalLineRepository {
	return &ApprovalLineRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ApprovalLineRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Create inserts a new line with its steps
func (r *ApprovalLineRepository) Create(ctx context.Context, line *entity.ApprovalLine) error {
	query := `
		INSERT INTO approval_lines (name, document_type, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		line.Name,
		line.DocumentType.String(),
		line.IsActive,
		line.CreatedAt,
		line.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval line", zap.Error(err))
		return fmt.Errorf("failed to create approval line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	line.ID = id

	return r.writeSteps(ctx, line)
}

// GetByID returns the line with its steps in step order, or nil when absent
func (r *ApprovalLineRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalLine, error) {
	query := `
		SELECT id, name, document_type, is_active, created_at, updated_at
		FROM approval_lines
		WHERE id = ?
	`

	line, err := r.scanLine(r.executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval line", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval line: %w", err)
	}

	if err := r.loadSteps(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// Update rewrites the line row and replaces its steps
func (r *ApprovalLineRepository) Update(ctx context.Context, line *entity.ApprovalLine) error {
	query := `
		UPDATE approval_lines SET name = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.executor(ctx).ExecContext(ctx, query, line.Name, line.IsActive, line.ID); err != nil {
		r.logger.Error("Failed to update approval line", zap.Int64("id", line.ID), zap.Error(err))
		return fmt.Errorf("failed to update approval line: %w", err)
	}

	if _, err := r.executor(ctx).ExecContext(ctx, "DELETE FROM approval_steps WHERE approval_line_id = ?", line.ID); err != nil {
		return fmt.Errorf("failed to clear approval steps: %w", err)
	}
	return r.writeSteps(ctx, line)
}

// SetActive toggles a line's availability for new documents
func (r *ApprovalLineRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `
		UPDATE approval_lines SET is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.executor(ctx).ExecContext(ctx, query, active, id); err != nil {
		r.logger.Error("Failed to set approval line active flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set approval line active flag: %w", err)
	}
	return nil
}

// ListActive returns the active lines for a document type
func (r *ApprovalLineRepository) ListActive(ctx context.Context, docType entity.DocumentType) ([]*entity.ApprovalLine, error) {
	query := `
		SELECT id, name, document_type, is_active, created_at, updated_at
		FROM approval_lines
		WHERE document_type = ? AND is_active = 1
		ORDER BY name
	`
	return r.queryLines(ctx, query, docType.String())
}

// List returns lines for a document type, newest first
func (r *ApprovalLineRepository) List(ctx context.Context, docType entity.DocumentType, limit, offset int) ([]*entity.ApprovalLine, error) {
	query := `
		SELECT id, name, document_type, is_active, created_at, updated_at
		FROM approval_lines
		WHERE document_type = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	return r.queryLines(ctx, query, docType.String(), limit, offset)
}

func (r *ApprovalLineRepository) queryLines(ctx context.Context, query string, args ...interface{}) ([]*entity.ApprovalLine, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.ApprovalLine
	for rows.Next() {
		line, err := r.scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, line := range lines {
		if err := r.loadSteps(ctx, line); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func (r *ApprovalLineRepository) scanLine(row rowScanner) (*entity.ApprovalLine, error) {
	var line entity.ApprovalLine
	var docType string

	err := row.Scan(
		&line.ID,
		&line.Name,
		&docType,
		&line.IsActive,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	line.DocumentType = entity.DocumentType(docType)
	return &line, nil
}

func (r *ApprovalLineRepository) loadSteps(ctx context.Context, line *entity.ApprovalLine) error {
	query := `
		SELECT step_order, step_name, approver_type, approver_id, job_level, dept_code,
			is_optional, can_skip, is_final_approval_available
		FROM approval_steps
		WHERE approval_line_id = ?
		ORDER BY step_order
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, line.ID)
	if err != nil {
		return fmt.Errorf("failed to load approval steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step entity.ApprovalStep
		var approverType string

		err := rows.Scan(
			&step.StepOrder,
			&step.StepName,
			&approverType,
			&step.ApproverID,
			&step.JobLevel,
			&step.DeptCode,
			&step.IsOptional,
			&step.CanSkip,
			&step.IsFinalApprovalAvailable,
		)
		if err != nil {
			return fmt.Errorf("failed to scan approval step: %w", err)
		}
		step.ApproverType = entity.ApproverType(approverType)
		line.Steps = append(line.Steps, step)
	}
	return rows.Err()
}

func (r *ApprovalLineRepository) writeSteps(ctx context.Context, line *entity.ApprovalLine) error {
	query := `
		INSERT INTO approval_steps (
			approval_line_id, step_order, step_name, approver_type, approver_id,
			job_level, dept_code, is_optional, can_skip, is_final_approval_available
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, step := range line.Steps {
		_, err := r.executor(ctx).ExecContext(ctx, query,
			line.ID,
			step.StepOrder,
			step.StepName,
			step.ApproverType.String(),
			step.ApproverID,
			step.JobLevel,
			step.DeptCode,
			step.IsOptional,
			step.CanSkip,
			step.IsFinalApprovalAvailable,
		)
		if err != nil {
			return fmt.Errorf("failed to write approval step %d: %w", step.StepOrder, err)
		}
	}
	return nil
}
