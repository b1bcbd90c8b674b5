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

// DocumentRepository implements port.DocumentRepository over sqlite. The
// document row carries a version column; Save is a compare-and-swap on it.
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Create inserts a new document with version 1 and its initial signatures
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			document_type, status, applicant_id, approval_line_id,
			current_step_order, current_approver_id, legacy_stage,
			is_final_approved, final_approver_id, final_approval_step, final_approval_date,
			rejection_reason, cancel_reason, payload, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		doc.DocumentType.String(),
		doc.Status,
		doc.ApplicantID,
		doc.ApprovalLineID,
		doc.CurrentStepOrder,
		doc.CurrentApproverID,
		stagePtr(doc.LegacyStage),
		doc.FinalApproval.IsFinalApproved,
		nullable(doc.FinalApproval.FinalApproverID),
		nullable(doc.FinalApproval.FinalApprovalStep),
		doc.FinalApproval.FinalApprovalDate,
		doc.RejectionReason,
		doc.CancelReason,
		string(doc.Payload),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	doc.ID = id
	doc.Version = 1

	return r.writeSignatures(ctx, doc)
}

// GetByID retrieves a document with its signature set, or nil when absent
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := `
		SELECT id, document_type, status, applicant_id, approval_line_id,
			current_step_order, current_approver_id, legacy_stage,
			is_final_approved, final_approver_id, final_approval_step, final_approval_date,
			rejection_reason, cancel_reason, payload, version, created_at, updated_at
		FROM documents
		WHERE id = ?
	`

	doc, err := r.scanDocument(r.executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if err := r.loadSignatures(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save persists the aggregate if the stored version still matches
// expectedVersion. A mismatch comes back as a conflict error so the engine
// can surface it without guessing.
func (r *DocumentRepository) Save(ctx context.Context, doc *entity.Document, expectedVersion int64) error {
	query := `
		UPDATE documents SET
			status = ?, approval_line_id = ?, current_step_order = ?,
			current_approver_id = ?, legacy_stage = ?,
			is_final_approved = ?, final_approver_id = ?, final_approval_step = ?, final_approval_date = ?,
			rejection_reason = ?, cancel_reason = ?, payload = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		doc.Status,
		doc.ApprovalLineID,
		doc.CurrentStepOrder,
		doc.CurrentApproverID,
		stagePtr(doc.LegacyStage),
		doc.FinalApproval.IsFinalApproved,
		nullable(doc.FinalApproval.FinalApproverID),
		nullable(doc.FinalApproval.FinalApprovalStep),
		doc.FinalApproval.FinalApprovalDate,
		doc.RejectionReason,
		doc.CancelReason,
		string(doc.Payload),
		doc.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to save document", zap.Int64("id", doc.ID), zap.Error(err))
		return fmt.Errorf("failed to save document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.Conflictf("document %d was modified concurrently (expected version %d)", doc.ID, expectedVersion)
	}
	doc.Version = expectedVersion + 1

	if _, err := r.executor(ctx).ExecContext(ctx, "DELETE FROM signatures WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("failed to clear signatures: %w", err)
	}
	return r.writeSignatures(ctx, doc)
}

// Delete hard-removes a document and its signatures
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.executor(ctx).ExecContext(ctx, "DELETE FROM signatures WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete signatures: %w", err)
	}
	if _, err := r.executor(ctx).ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		r.logger.Error("Failed to delete document", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListByApplicant returns the applicant's documents, newest first
func (r *DocumentRepository) ListByApplicant(ctx context.Context, applicantID string, limit, offset int) ([]*entity.Document, error) {
	return r.list(ctx, "applicant_id = ?", applicantID, limit, offset)
}

// ListByStatus returns documents in a status, newest first
func (r *DocumentRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Document, error) {
	return r.list(ctx, "status = ?", status, limit, offset)
}

func (r *DocumentRepository) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*entity.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, document_type, status, applicant_id, approval_line_id,
			current_step_order, current_approver_id, legacy_stage,
			is_final_approved, final_approver_id, final_approval_step, final_approval_date,
			rejection_reason, cancel_reason, payload, version, created_at, updated_at
		FROM documents
		WHERE %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, where)

	rows, err := r.executor(ctx).QueryContext(ctx, query, arg, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if err := r.loadSignatures(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *DocumentRepository) scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	var docType, payload string
	var legacyStage, finalApproverID, finalStep sql.NullString
	var finalDate sql.NullTime

	err := row.Scan(
		&doc.ID,
		&docType,
		&doc.Status,
		&doc.ApplicantID,
		&doc.ApprovalLineID,
		&doc.CurrentStepOrder,
		&doc.CurrentApproverID,
		&legacyStage,
		&doc.FinalApproval.IsFinalApproved,
		&finalApproverID,
		&finalStep,
		&finalDate,
		&doc.RejectionReason,
		&doc.CancelReason,
		&payload,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.DocumentType = entity.DocumentType(docType)
	doc.Payload = []byte(payload)
	if legacyStage.Valid {
		stage := entity.LegacyStage(legacyStage.String)
		doc.LegacyStage = &stage
	}
	if finalApproverID.Valid {
		doc.FinalApproval.FinalApproverID = finalApproverID.String
	}
	if finalStep.Valid {
		doc.FinalApproval.FinalApprovalStep = finalStep.String
	}
	if finalDate.Valid {
		doc.FinalApproval.FinalApprovalDate = &finalDate.Time
	}
	doc.Signatures = make(map[entity.Slot]*entity.Signature)
	return &doc, nil
}

func (r *DocumentRepository) loadSignatures(ctx context.Context, doc *entity.Document) error {
	query := `
		SELECT slot, is_signed, image_ref, signed_at, signed_by, auto_satisfied
		FROM signatures
		WHERE document_id = ?
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sig entity.Signature
		var slot string
		var signedAt sql.NullTime

		if err := rows.Scan(&slot, &sig.IsSigned, &sig.ImageRef, &signedAt, &sig.SignedBy, &sig.AutoSatisfiedByFinalApproval); err != nil {
			return fmt.Errorf("failed to scan signature: %w", err)
		}
		sig.Slot = entity.Slot(slot)
		if signedAt.Valid {
			sig.SignedAt = &signedAt.Time
		}
		doc.Signatures[sig.Slot] = &sig
	}
	return rows.Err()
}

func (r *DocumentRepository) writeSignatures(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO signatures (document_id, slot, is_signed, image_ref, signed_at, signed_by, auto_satisfied)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, sig := range doc.Signatures {
		_, err := r.executor(ctx).ExecContext(ctx, query,
			doc.ID,
			sig.Slot.String(),
			sig.IsSigned,
			sig.ImageRef,
			sig.SignedAt,
			sig.SignedBy,
			sig.AutoSatisfiedByFinalApproval,
		)
		if err != nil {
			return fmt.Errorf("failed to write signature %s: %w", sig.Slot, err)
		}
	}
	return nil
}

func stagePtr(stage *entity.LegacyStage) *string {
	if stage == nil {
		return nil
	}
	s := stage.String()
	return &s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
