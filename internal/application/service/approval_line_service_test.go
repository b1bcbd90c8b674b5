package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withushr/approval-engine/internal/application/port"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

type mockLineRepo struct {
	createFn     func(ctx context.Context, line *entity.ApprovalLine) error
	getByIDFn    func(ctx context.Context, id int64) (*entity.ApprovalLine, error)
	updateFn     func(ctx context.Context, line *entity.ApprovalLine) error
	setActiveFn  func(ctx context.Context, id int64, active bool) error
	listActiveFn func(ctx context.Context, docType entity.DocumentType) ([]*entity.ApprovalLine, error)
	listFn       func(ctx context.Context, docType entity.DocumentType, limit, offset int) ([]*entity.ApprovalLine, error)
}

var _ port.ApprovalLineRepository = (*mockLineRepo)(nil)

func (m *mockLineRepo) Create(ctx context.Context, line *entity.ApprovalLine) error {
	if m.createFn != nil {
		return m.createFn(ctx, line)
	}
	line.ID = 1
	return nil
}

func (m *mockLineRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalLine, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockLineRepo) Update(ctx context.Context, line *entity.ApprovalLine) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, line)
	}
	return nil
}

func (m *mockLineRepo) SetActive(ctx context.Context, id int64, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockLineRepo) ListActive(ctx context.Context, docType entity.DocumentType) ([]*entity.ApprovalLine, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, docType)
	}
	return nil, nil
}

func (m *mockLineRepo) List(ctx context.Context, docType entity.DocumentType, limit, offset int) ([]*entity.ApprovalLine, error) {
	if m.listFn != nil {
		return m.listFn(ctx, docType, limit, offset)
	}
	return nil, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func validLine() *entity.ApprovalLine {
	return &entity.ApprovalLine{
		Name:         "표준 휴가 결재선",
		DocumentType: entity.DocumentTypeLeaveApplication,
		Steps: []entity.ApprovalStep{
			{StepOrder: 1, StepName: "부서장", ApproverType: entity.ApproverTypeDepartmentHead},
			{StepOrder: 2, StepName: "행정원장", ApproverType: entity.ApproverTypeAdminDirector},
		},
	}
}

func TestCreateActivatesValidLine(t *testing.T) {
	svc := NewApprovalLineService(&mockLineRepo{}, nopLogger{})

	line, err := svc.Create(context.Background(), validLine())
	require.NoError(t, err)
	assert.Equal(t, int64(1), line.ID)
	assert.True(t, line.IsActive)
}

func TestCreateRejectsMalformedLines(t *testing.T) {
	svc := NewApprovalLineService(&mockLineRepo{}, nopLogger{})

	tests := []struct {
		name   string
		mutate func(*entity.ApprovalLine)
	}{
		{"empty name", func(l *entity.ApprovalLine) { l.Name = "" }},
		{"unknown document type", func(l *entity.ApprovalLine) { l.DocumentType = "EXPENSE" }},
		{"no steps", func(l *entity.ApprovalLine) { l.Steps = nil }},
		{"duplicate step order", func(l *entity.ApprovalLine) { l.Steps[1].StepOrder = 1 }},
		{"step order gap", func(l *entity.ApprovalLine) { l.Steps[1].StepOrder = 3 }},
		{"specific user without id", func(l *entity.ApprovalLine) {
			l.Steps[0].ApproverType = entity.ApproverTypeSpecificUser
		}},
		{"job level without level", func(l *entity.ApprovalLine) {
			l.Steps[0].ApproverType = entity.ApproverTypeJobLevel
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := validLine()
			tt.mutate(line)
			_, err := svc.Create(context.Background(), line)
			assert.True(t, workflow.IsValidation(err), "got %v", err)
		})
	}
}

func TestGetMissingLineIsNotFound(t *testing.T) {
	svc := NewApprovalLineService(&mockLineRepo{}, nopLogger{})

	_, err := svc.Get(context.Background(), 42)
	assert.True(t, workflow.IsNotFound(err))
}

func TestUpdateKeepsDocumentTypeImmutable(t *testing.T) {
	stored := validLine()
	stored.ID = 7
	repo := &mockLineRepo{
		getByIDFn: func(_ context.Context, id int64) (*entity.ApprovalLine, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, nil
		},
	}
	svc := NewApprovalLineService(repo, nopLogger{})

	revised := validLine()
	revised.ID = 7
	revised.DocumentType = entity.DocumentTypeEmploymentContract

	_, err := svc.Update(context.Background(), revised)
	assert.True(t, workflow.IsValidation(err))

	revised.DocumentType = entity.DocumentTypeLeaveApplication
	revised.Name = "개정 결재선"
	line, err := svc.Update(context.Background(), revised)
	require.NoError(t, err)
	assert.Equal(t, "개정 결재선", line.Name)
}

func TestUpdateMissingLineIsNotFound(t *testing.T) {
	svc := NewApprovalLineService(&mockLineRepo{}, nopLogger{})

	revised := validLine()
	revised.ID = 99
	_, err := svc.Update(context.Background(), revised)
	assert.True(t, workflow.IsNotFound(err))
}

func TestSetActiveChecksExistence(t *testing.T) {
	stored := validLine()
	stored.ID = 3
	var toggled bool
	repo := &mockLineRepo{
		getByIDFn: func(_ context.Context, id int64) (*entity.ApprovalLine, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, nil
		},
		setActiveFn: func(_ context.Context, id int64, active bool) error {
			toggled = true
			assert.Equal(t, stored.ID, id)
			assert.False(t, active)
			return nil
		},
	}
	svc := NewApprovalLineService(repo, nopLogger{})

	err := svc.SetActive(context.Background(), 8, false)
	assert.True(t, workflow.IsNotFound(err))
	assert.False(t, toggled)

	require.NoError(t, svc.SetActive(context.Background(), 3, false))
	assert.True(t, toggled)
}
