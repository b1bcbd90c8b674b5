// Package directory adapts the organizational user store into the approver
// directory the workflow engine consults. Resolution is a pure lookup; the
// adapter holds no state of its own.
package directory

import (
	"context"

	"go.uber.org/zap"

	"github.com/withushr/approval-engine/internal/application/port"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

var roleForApproverType = map[entity.ApproverType]entity.Role{
	entity.ApproverTypeDepartmentHead: entity.RoleDepartmentHead,
	entity.ApproverTypeHRStaff:        entity.RoleHRStaff,
	entity.ApproverTypeCenterDirector: entity.RoleCenterDirector,
	entity.ApproverTypeAdminDirector:  entity.RoleAdminDirector,
	entity.ApproverTypeCEODirector:    entity.RoleCEODirector,
}

// Adapter implements port.ApproverDirectory over the user repository
type Adapter struct {
	users  port.UserRepository
	logger *zap.Logger
}

// NewAdapter creates a new approver directory adapter
func NewAdapter(users port.UserRepository, logger *zap.Logger) *Adapter {
	return &Adapter{users: users, logger: logger}
}

// Resolve maps an approver reference to exactly one user
func (a *Adapter) Resolve(ctx context.Context, ref entity.ApproverRef, docCtx entity.DocumentContext) (*entity.User, error) {
	switch ref.Type {
	case entity.ApproverTypeSubstitute:
		if docCtx.SubstituteID == "" {
			return nil, workflow.ErrNoEligibleApprover
		}
		return a.mustGetUser(ctx, docCtx.SubstituteID)

	case entity.ApproverTypeEmployee:
		if docCtx.EmployeeID == "" {
			return nil, workflow.ErrNoEligibleApprover
		}
		return a.mustGetUser(ctx, docCtx.EmployeeID)

	case entity.ApproverTypeSpecificUser:
		if ref.ApproverID == "" {
			return nil, workflow.Configurationf("SPECIFIC_USER reference without an approver id")
		}
		return a.mustGetUser(ctx, ref.ApproverID)

	case entity.ApproverTypeJobLevel:
		candidates, err := a.users.FindByJobLevel(ctx, ref.JobLevel, ref.DeptCode)
		if err != nil {
			return nil, err
		}
		return a.exactlyOne(ref, candidates)

	default:
		role, ok := roleForApproverType[ref.Type]
		if !ok {
			return nil, workflow.Configurationf("unresolvable approver type %s", ref.Type)
		}
		candidates, err := a.users.FindByRole(ctx, role, ref.DeptCode)
		if err != nil {
			return nil, err
		}
		return a.exactlyOne(ref, candidates)
	}
}

func (a *Adapter) mustGetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, workflow.ErrNoEligibleApprover
	}
	return user, nil
}

func (a *Adapter) exactlyOne(ref entity.ApproverRef, candidates []*entity.User) (*entity.User, error) {
	switch len(candidates) {
	case 0:
		return nil, workflow.ErrNoEligibleApprover
	case 1:
		return candidates[0], nil
	default:
		a.logger.Warn("Ambiguous approver resolution",
			zap.String("approver_type", ref.Type.String()),
			zap.String("dept_code", ref.DeptCode),
			zap.Int("candidates", len(candidates)))
		return nil, workflow.Configurationf("approver type %s resolves to %d users", ref.Type, len(candidates))
	}
}
