package handler

import (
	"strconv"

	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultAuditTrailLimit caps audit trail reads when no limit is given
const defaultAuditTrailLimit = 50

// RequisitionHandler handles requisition-related API endpoints
type RequisitionHandler struct {
	BaseHandler
	service *procurementapp.RequisitionService
}

// NewRequisitionHandler creates a new RequisitionHandler
func NewRequisitionHandler(service *procurementapp.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{service: service}
}

// ApprovalDecisionRequest carries the approver's comments
type ApprovalDecisionRequest struct {
	Comments string `json:"comments" binding:"max=1000"`
}

// RejectionRequest carries the rejecting approver's comments
type RejectionRequest struct {
	Comments string `json:"comments" binding:"required,min=1,max=1000"`
}

// CancelRequisitionRequest carries the cancellation reason
type CancelRequisitionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Create handles POST /requisitions
func (h *RequisitionHandler) Create(c *gin.Context) {
	requestorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	var req procurementapp.CreateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	requisition, err := h.service.Create(c.Request.Context(), requestorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, requisition)
}

// GetByID handles GET /requisitions/:id
func (h *RequisitionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	requisition, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, requisition)
}

// GetByNumber handles GET /requisitions/number/:number
func (h *RequisitionHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Requisition number is required")
		return
	}

	requisition, err := h.service.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, requisition)
}

// List handles GET /requisitions
func (h *RequisitionHandler) List(c *gin.Context) {
	var filter procurementapp.RequisitionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Submit handles POST /requisitions/:id/submit
func (h *RequisitionHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	result, err := h.service.Submit(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Approve handles POST /requisitions/:id/approve
func (h *RequisitionHandler) Approve(c *gin.Context) {
	approverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	var req ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}

	requisition, err := h.service.Approve(c.Request.Context(), id, approverID, req.Comments)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, requisition)
}

// Reject handles POST /requisitions/:id/reject
func (h *RequisitionHandler) Reject(c *gin.Context) {
	approverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	var req RejectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	requisition, err := h.service.Reject(c.Request.Context(), id, approverID, req.Comments)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, requisition)
}

// Cancel handles POST /requisitions/:id/cancel
func (h *RequisitionHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	var req CancelRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	requisition, err := h.service.Cancel(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, requisition)
}

// Validate handles GET /requisitions/:id/validation
func (h *RequisitionHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	result, err := h.service.Validate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CheckBudget handles GET /requisitions/:id/budget
func (h *RequisitionHandler) CheckBudget(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	result, err := h.service.CheckBudget(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AuditTrail handles GET /requisitions/:id/audit
func (h *RequisitionHandler) AuditTrail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	limit := defaultAuditTrailLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "Limit must be a positive integer")
			return
		}
		limit = parsed
	}

	trail, err := h.service.GetAuditTrail(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trail)
}

// StatusSummary handles GET /requisitions/summary
func (h *RequisitionHandler) StatusSummary(c *gin.Context) {
	summary, err := h.service.GetStatusSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Delete handles DELETE /requisitions/:id (draft only)
func (h *RequisitionHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Valid X-User-ID header is required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID format")
		return
	}

	if err := h.service.DeleteDraft(c.Request.Context(), id, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
