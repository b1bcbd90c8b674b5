package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

type mockUserRepo struct {
	getByIDFunc        func(ctx context.Context, id string) (*entity.User, error)
	findByRoleFunc     func(ctx context.Context, role entity.Role, deptCode string) ([]*entity.User, error)
	findByJobLevelFunc func(ctx context.Context, jobLevel, deptCode string) ([]*entity.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role entity.Role, deptCode string) ([]*entity.User, error) {
	if m.findByRoleFunc != nil {
		return m.findByRoleFunc(ctx, role, deptCode)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByJobLevel(ctx context.Context, jobLevel, deptCode string) ([]*entity.User, error) {
	if m.findByJobLevelFunc != nil {
		return m.findByJobLevelFunc(ctx, jobLevel, deptCode)
	}
	return nil, nil
}

func TestResolveSubstituteFromContext(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFunc: func(_ context.Context, id string) (*entity.User, error) {
			if id == "emp-002" {
				return &entity.User{ID: "emp-002"}, nil
			}
			return nil, nil
		},
	}
	adapter := NewAdapter(repo, zap.NewNop())

	user, err := adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeSubstitute},
		entity.DocumentContext{SubstituteID: "emp-002"})
	require.NoError(t, err)
	assert.Equal(t, "emp-002", user.ID)

	// No substitute designated
	_, err = adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeSubstitute},
		entity.DocumentContext{})
	assert.True(t, errors.Is(err, workflow.ErrNoEligibleApprover))
}

func TestResolveEmployeeFromContext(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFunc: func(_ context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id}, nil
		},
	}
	adapter := NewAdapter(repo, zap.NewNop())

	user, err := adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeEmployee},
		entity.DocumentContext{EmployeeID: "emp-001"})
	require.NoError(t, err)
	assert.Equal(t, "emp-001", user.ID)
}

func TestResolveSpecificUser(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFunc: func(_ context.Context, id string) (*entity.User, error) {
			if id == "hr-001" {
				return &entity.User{ID: "hr-001"}, nil
			}
			return nil, nil
		},
	}
	adapter := NewAdapter(repo, zap.NewNop())

	user, err := adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeSpecificUser, ApproverID: "hr-001"},
		entity.DocumentContext{})
	require.NoError(t, err)
	assert.Equal(t, "hr-001", user.ID)

	// Missing user is a resolution failure, not a silent skip
	_, err = adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeSpecificUser, ApproverID: "ghost"},
		entity.DocumentContext{})
	assert.True(t, errors.Is(err, workflow.ErrNoEligibleApprover))

	// A ref without an id is a configuration mistake
	_, err = adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeSpecificUser},
		entity.DocumentContext{})
	assert.True(t, workflow.IsConfiguration(err))
}

func TestResolveByRole(t *testing.T) {
	tests := []struct {
		name       string
		candidates []*entity.User
		wantID     string
		wantErr    func(error) bool
	}{
		{
			name:       "exactly one match",
			candidates: []*entity.User{{ID: "head-001"}},
			wantID:     "head-001",
		},
		{
			name:       "no match",
			candidates: nil,
			wantErr:    func(err error) bool { return errors.Is(err, workflow.ErrNoEligibleApprover) },
		},
		{
			name:       "ambiguous match fails closed",
			candidates: []*entity.User{{ID: "head-001"}, {ID: "head-002"}},
			wantErr:    workflow.IsConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				findByRoleFunc: func(_ context.Context, role entity.Role, deptCode string) ([]*entity.User, error) {
					assert.Equal(t, entity.RoleDepartmentHead, role)
					assert.Equal(t, "CARE-01", deptCode)
					return tt.candidates, nil
				},
			}
			adapter := NewAdapter(repo, zap.NewNop())

			user, err := adapter.Resolve(context.Background(),
				entity.ApproverRef{Type: entity.ApproverTypeDepartmentHead, DeptCode: "CARE-01"},
				entity.DocumentContext{})
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestResolveByJobLevel(t *testing.T) {
	repo := &mockUserRepo{
		findByJobLevelFunc: func(_ context.Context, jobLevel, deptCode string) ([]*entity.User, error) {
			assert.Equal(t, "4", jobLevel)
			return []*entity.User{{ID: "center-001"}}, nil
		},
	}
	adapter := NewAdapter(repo, zap.NewNop())

	user, err := adapter.Resolve(context.Background(),
		entity.ApproverRef{Type: entity.ApproverTypeJobLevel, JobLevel: "4"},
		entity.DocumentContext{})
	require.NoError(t, err)
	assert.Equal(t, "center-001", user.ID)
}
