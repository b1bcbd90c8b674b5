package port

import (
	"context"

	"github.com/withushr/approval-engine/internal/domain/entity"
)

// ApproverDirectory resolves an abstract approver role to exactly one
// concrete user, given document context. Zero candidates is a no-eligible-
// approver error; more than one is a configuration error.
type ApproverDirectory interface {
	Resolve(ctx context.Context, ref entity.ApproverRef, docCtx entity.DocumentContext) (*entity.User, error)
}
