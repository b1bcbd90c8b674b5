package port

import (
	"context"

	"github.com/withushr/approval-engine/internal/domain/entity"
)

// DocumentRepository defines persistence operations for the Document
// aggregate. Loads include the document's signature set; saves persist both.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error

	// GetByID returns the document with its signatures, or nil when absent
	GetByID(ctx context.Context, id int64) (*entity.Document, error)

	// Save persists the aggregate if and only if the stored version equals
	// expectedVersion, bumping the version on success. A mismatch is the
	// optimistic-concurrency conflict signal.
	Save(ctx context.Context, doc *entity.Document, expectedVersion int64) error

	// Delete hard-removes a document and its signatures
	Delete(ctx context.Context, id int64) error

	ListByApplicant(ctx context.Context, applicantID string, limit, offset int) ([]*entity.Document, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Document, error)
}

// ApprovalLineRepository defines persistence operations for approval line
// templates and their steps.
type ApprovalLineRepository interface {
	Create(ctx context.Context, line *entity.ApprovalLine) error

	// GetByID returns the line with its ordered steps, or nil when absent
	GetByID(ctx context.Context, id int64) (*entity.ApprovalLine, error)

	Update(ctx context.Context, line *entity.ApprovalLine) error
	SetActive(ctx context.Context, id int64, active bool) error
	ListActive(ctx context.Context, docType entity.DocumentType) ([]*entity.ApprovalLine, error)
	List(ctx context.Context, docType entity.DocumentType, limit, offset int) ([]*entity.ApprovalLine, error)
}

// UserRepository defines read access to the organizational directory
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	FindByRole(ctx context.Context, role entity.Role, deptCode string) ([]*entity.User, error)
	FindByJobLevel(ctx context.Context, jobLevel, deptCode string) ([]*entity.User, error)
}

// LeaveBalanceRepository defines persistence operations for leave-day accounts
type LeaveBalanceRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.LeaveBalance, error)

	// Debit consumes days from the account; fails when the remainder would go
	// negative.
	Debit(ctx context.Context, userID string, days float64) error

	// Credit restores days to the account
	Credit(ctx context.Context, userID string, days float64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
