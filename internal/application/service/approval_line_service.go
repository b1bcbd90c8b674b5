package service

import (
	"context"

	"github.com/withushr/approval-engine/internal/application/port"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ApprovalLineService manages the reusable approval line templates
type ApprovalLineService interface {
	Create(ctx context.Context, line *entity.ApprovalLine) (*entity.ApprovalLine, error)
	Get(ctx context.Context, id int64) (*entity.ApprovalLine, error)
	Update(ctx context.Context, line *entity.ApprovalLine) (*entity.ApprovalLine, error)
	SetActive(ctx context.Context, id int64, active bool) error
	ListActive(ctx context.Context, docType entity.DocumentType) ([]*entity.ApprovalLine, error)
	List(ctx context.Context, docType entity.DocumentType, limit, offset int) ([]*entity.ApprovalLine, error)
}

type approvalLineServiceImpl struct {
	lines  port.ApprovalLineRepository
	logger Logger
}

// NewApprovalLineService creates a new ApprovalLineService
func NewApprovalLineService(lines port.ApprovalLineRepository, logger Logger) ApprovalLineService {
	return &approvalLineServiceImpl{
		lines:  lines,
		logger: logger,
	}
}

// Create validates and stores a new approval line
func (s *approvalLineServiceImpl) Create(ctx context.Context, line *entity.ApprovalLine) (*entity.ApprovalLine, error) {
	if err := line.Validate(); err != nil {
		return nil, workflow.Validationf("invalid approval line: %v", err)
	}
	line.IsActive = true

	if err := s.lines.Create(ctx, line); err != nil {
		s.logger.Error("Failed to create approval line", "error", err, "name", line.Name)
		return nil, err
	}

	s.logger.Info("Approval line created", "id", line.ID, "name", line.Name, "steps", len(line.Steps))
	return line, nil
}

// Get retrieves an approval line with its steps
func (s *approvalLineServiceImpl) Get(ctx context.Context, id int64) (*entity.ApprovalLine, error) {
	line, err := s.lines.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get approval line", "error", err, "id", id)
		return nil, err
	}
	if line == nil {
		return nil, workflow.NotFoundf("approval line %d", id)
	}
	return line, nil
}

// Update replaces an existing line's name and steps. Documents already
// pending on the line keep the step set they were submitted with only if the
// revision stays well-formed, so the same structural validation applies.
func (s *approvalLineServiceImpl) Update(ctx context.Context, line *entity.ApprovalLine) (*entity.ApprovalLine, error) {
	if err := line.Validate(); err != nil {
		return nil, workflow.Validationf("invalid approval line: %v", err)
	}

	existing, err := s.Get(ctx, line.ID)
	if err != nil {
		return nil, err
	}
	if existing.DocumentType != line.DocumentType {
		return nil, workflow.Validationf("approval line %d document type cannot change", line.ID)
	}

	if err := s.lines.Update(ctx, line); err != nil {
		s.logger.Error("Failed to update approval line", "error", err, "id", line.ID)
		return nil, err
	}

	s.logger.Info("Approval line updated", "id", line.ID, "name", line.Name)
	return line, nil
}

// SetActive toggles whether the line can be attached to new documents.
// Documents already referencing an inactive line remain valid.
func (s *approvalLineServiceImpl) SetActive(ctx context.Context, id int64, active bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.lines.SetActive(ctx, id, active); err != nil {
		s.logger.Error("Failed to toggle approval line", "error", err, "id", id)
		return err
	}

	s.logger.Info("Approval line toggled", "id", id, "active", active)
	return nil
}

// ListActive returns lines attachable to new documents of a type
func (s *approvalLineServiceImpl) ListActive(ctx context.Context, docType entity.DocumentType) ([]*entity.ApprovalLine, error) {
	return s.lines.ListActive(ctx, docType)
}

// List returns all lines of a type, active or not
func (s *approvalLineServiceImpl) List(ctx context.Context, docType entity.DocumentType, limit, offset int) ([]*entity.ApprovalLine, error) {
	return s.lines.List(ctx, docType, limit, offset)
}
