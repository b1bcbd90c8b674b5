package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/withushr/approval-engine/internal/application/service"
	appworkflow "github.com/withushr/approval-engine/internal/application/workflow"
	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

// actorHeader carries the acting user's identity. Authentication itself is a
// gateway concern; the engine trusts the resolved identity it is given.
const actorHeader = "X-Actor-ID"

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine      appworkflow.Engine
	lineService service.ApprovalLineService
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine appworkflow.Engine, lineService service.ApprovalLineService, logger Logger) *Handlers {
	return &Handlers{
		engine:      engine,
		lineService: lineService,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SignatureResponse represents one signature slot in API responses
type SignatureResponse struct {
	Slot          string  `json:"slot"`
	IsSigned      bool    `json:"is_signed"`
	ImageRef      string  `json:"image_ref,omitempty"`
	SignedAt      *string `json:"signed_at,omitempty"`
	SignedBy      string  `json:"signed_by,omitempty"`
	AutoSatisfied bool    `json:"auto_satisfied"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                int64               `json:"id"`
	DocumentType      string              `json:"document_type"`
	Status            string              `json:"status"`
	ApplicantID       string              `json:"applicant_id"`
	ApprovalLineID    *int64              `json:"approval_line_id,omitempty"`
	CurrentStepOrder  *int                `json:"current_step_order,omitempty"`
	CurrentApproverID *string             `json:"current_approver_id,omitempty"`
	LegacyStage       string              `json:"legacy_stage,omitempty"`
	IsFinalApproved   bool                `json:"is_final_approved"`
	FinalApproverID   string              `json:"final_approver_id,omitempty"`
	FinalApprovalStep string              `json:"final_approval_step,omitempty"`
	RejectionReason   *string             `json:"rejection_reason,omitempty"`
	CancelReason      *string             `json:"cancel_reason,omitempty"`
	Payload           json.RawMessage     `json:"payload,omitempty"`
	Signatures        []SignatureResponse `json:"signatures"`
	Version           int64               `json:"version"`
	CreatedAt         string              `json:"created_at"`
	UpdatedAt         string              `json:"updated_at"`
}

func toDocumentResponse(doc *entity.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                doc.ID,
		DocumentType:      doc.DocumentType.String(),
		Status:            doc.Status,
		ApplicantID:       doc.ApplicantID,
		ApprovalLineID:    doc.ApprovalLineID,
		CurrentStepOrder:  doc.CurrentStepOrder,
		CurrentApproverID: doc.CurrentApproverID,
		IsFinalApproved:   doc.FinalApproval.IsFinalApproved,
		FinalApproverID:   doc.FinalApproval.FinalApproverID,
		FinalApprovalStep: doc.FinalApproval.FinalApprovalStep,
		RejectionReason:   doc.RejectionReason,
		CancelReason:      doc.CancelReason,
		Payload:           doc.Payload,
		Signatures:        []SignatureResponse{},
		Version:           doc.Version,
		CreatedAt:         doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if doc.LegacyStage != nil {
		resp.LegacyStage = doc.LegacyStage.String()
	}
	for _, sig := range doc.Signatures {
		sr := SignatureResponse{
			Slot:          sig.Slot.String(),
			IsSigned:      sig.IsSigned,
			ImageRef:      sig.ImageRef,
			SignedBy:      sig.SignedBy,
			AutoSatisfied: sig.AutoSatisfiedByFinalApproval,
		}
		if sig.SignedAt != nil {
			t := sig.SignedAt.UTC().Format(time.RFC3339)
			sr.SignedAt = &t
		}
		resp.Signatures = append(resp.Signatures, sr)
	}
	return resp
}

// ApprovalStepRequest represents one step of an approval line in requests
type ApprovalStepRequest struct {
	StepOrder                int    `json:"step_order"`
	StepName                 string `json:"step_name"`
	ApproverType             string `json:"approver_type"`
	ApproverID               string `json:"approver_id,omitempty"`
	JobLevel                 string `json:"job_level,omitempty"`
	DeptCode                 string `json:"dept_code,omitempty"`
	IsOptional               bool   `json:"is_optional"`
	CanSkip                  bool   `json:"can_skip"`
	IsFinalApprovalAvailable bool   `json:"is_final_approval_available"`
}

// ApprovalLineRequest represents an approval line create/update request
type ApprovalLineRequest struct {
	Name         string                `json:"name"`
	DocumentType string                `json:"document_type"`
	IsActive     *bool                 `json:"is_active,omitempty"`
	Steps        []ApprovalStepRequest `json:"steps"`
}

func (r *ApprovalLineRequest) toEntity() *entity.ApprovalLine {
	line := &entity.ApprovalLine{
		Name:         r.Name,
		DocumentType: entity.DocumentType(r.DocumentType),
		IsActive:     true,
	}
	if r.IsActive != nil {
		line.IsActive = *r.IsActive
	}
	for _, s := range r.Steps {
		line.Steps = append(line.Steps, entity.ApprovalStep{
			StepOrder:                s.StepOrder,
			StepName:                 s.StepName,
			ApproverType:             entity.ApproverType(s.ApproverType),
			ApproverID:               s.ApproverID,
			JobLevel:                 s.JobLevel,
			DeptCode:                 s.DeptCode,
			IsOptional:               s.IsOptional,
			CanSkip:                  s.CanSkip,
			IsFinalApprovalAvailable: s.IsFinalApprovalAvailable,
		})
	}
	return line
}

// respondError maps error classes to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case workflow.IsValidation(err):
		status = http.StatusBadRequest
	case workflow.IsAuthorization(err):
		status = http.StatusForbidden
	case workflow.IsNotFound(err):
		status = http.StatusNotFound
	case workflow.IsConflict(err):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// actorID extracts the acting user from the request headers
func (h *Handlers) actorID(c *gin.Context) (string, bool) {
	actor := c.GetHeader(actorHeader)
	if actor == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing " + actorHeader + " header",
		})
		return "", false
	}
	return actor, true
}

// pathID extracts the numeric :id path parameter
func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid id parameter",
		})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	DocumentType string          `json:"document_type" binding:"required"`
	Payload      json.RawMessage `json:"payload"`
}

// CreateDocument handles POST /api/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := h.engine.Create(c.Request.Context(), actor, entity.DocumentType(req.DocumentType), req.Payload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toDocumentResponse(doc)})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	doc, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// ListDocuments handles GET /api/documents filtered by applicant or status
func (h *Handlers) ListDocuments(c *gin.Context) {
	limit, offset := pagination(c)

	var docs []*entity.Document
	var err error
	switch {
	case c.Query("applicant_id") != "":
		docs, err = h.engine.ListByApplicant(c.Request.Context(), c.Query("applicant_id"), limit, offset)
	case c.Query("status") != "":
		docs, err = h.engine.ListByStatus(c.Request.Context(), c.Query("status"), limit, offset)
	default:
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "either applicant_id or status query parameter is required",
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, toDocumentResponse(doc))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *Handlers) DeleteDocument(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.engine.Delete(c.Request.Context(), id, actor); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// SignRequest represents a signature request
type SignRequest struct {
	Slot     string `json:"slot" binding:"required"`
	ImageRef string `json:"image_ref"`
}

// SignDocument handles POST /api/documents/:id/sign
func (h *Handlers) SignDocument(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := h.engine.Sign(c.Request.Context(), id, actor, entity.Slot(req.Slot), req.ImageRef)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// UnsignRequest represents a signature reset request
type UnsignRequest struct {
	Slot string `json:"slot" binding:"required"`
}

// UnsignDocument handles POST /api/documents/:id/unsign
func (h *Handlers) UnsignDocument(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UnsignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := h.engine.Unsign(c.Request.Context(), id, actor, entity.Slot(req.Slot))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// SubmitRequest represents a document submission request
type SubmitRequest struct {
	ApprovalLineID *int64 `json:"approval_line_id,omitempty"`
}

// SubmitDocument handles POST /api/documents/:id/submit
func (h *Handlers) SubmitDocument(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	doc, err := h.engine.Submit(c.Request.Context(), id, actor, req.ApprovalLineID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// ApproveRequest represents an approval request
type ApproveRequest struct {
	Comment           string `json:"comment"`
	SignatureImageRef string `json:"signature_image_ref"`
	IsFinalApproval   bool   `json:"is_final_approval"`
}

// ApproveDocument handles POST /api/documents/:id/approve
func (h *Handlers) ApproveDocument(c *gin.Context) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	doc, err := h.engine.Approve(c.Request.Context(), id, actor, appworkflow.ApproveOptions{
		Comment:           req.Comment,
		SignatureImageRef: req.SignatureImageRef,
		IsFinalApproval:   req.IsFinalApproval,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// ReasonRequest represents a request carrying a reason field
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// RejectDocument handles POST /api/documents/:id/reject
func (h *Handlers) RejectDocument(c *gin.Context) {
	h.reasonOperation(c, h.engine.Reject)
}

// ReturnDocument handles POST /api/documents/:id/return
func (h *Handlers) ReturnDocument(c *gin.Context) {
	h.reasonOperation(c, h.engine.ReturnToDraft)
}

// CancelDocument handles POST /api/documents/:id/cancel
func (h *Handlers) CancelDocument(c *gin.Context) {
	h.reasonOperation(c, h.engine.CancelApproved)
}

func (h *Handlers) reasonOperation(
	c *gin.Context,
	op func(ctx context.Context, documentID int64, actorID, reason string) (*entity.Document, error),
) {
	actor, ok := h.actorID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	doc, err := op(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// CreateApprovalLine handles POST /api/approval-lines
func (h *Handlers) CreateApprovalLine(c *gin.Context) {
	var req ApprovalLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	line, err := h.lineService.Create(c.Request.Context(), req.toEntity())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: line})
}

// GetApprovalLine handles GET /api/approval-lines/:id
func (h *Handlers) GetApprovalLine(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	line, err := h.lineService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: line})
}

// ListApprovalLines handles GET /api/approval-lines
func (h *Handlers) ListApprovalLines(c *gin.Context) {
	docType := entity.DocumentType(c.Query("document_type"))
	if !docType.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "document_type query parameter is required",
		})
		return
	}

	if c.Query("active") == "true" {
		lines, err := h.lineService.ListActive(c.Request.Context(), docType)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: lines})
		return
	}

	limit, offset := pagination(c)
	lines, err := h.lineService.List(c.Request.Context(), docType, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: lines})
}

// UpdateApprovalLine handles PUT /api/approval-lines/:id
func (h *Handlers) UpdateApprovalLine(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ApprovalLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	line := req.toEntity()
	line.ID = id

	updated, err := h.lineService.Update(c.Request.Context(), line)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// SetActiveRequest represents an activation toggle request
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SetApprovalLineActive handles POST /api/approval-lines/:id/active
func (h *Handlers) SetApprovalLineActive(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.lineService.SetActive(c.Request.Context(), id, req.Active); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}
