package handler

import (
	"net/http"
	"strings"
	"time"

	appissuance "github.com/awr/backend/internal/application/issuance"
	"github.com/awr/backend/internal/interfaces/http/dto"
	"github.com/awr/backend/internal/interfaces/http/middleware"
	"github.com/awr/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AwrHandler exposes the AWR workflow over HTTP
type AwrHandler struct {
	BaseHandler
	service *appissuance.WorkflowService
	logger  *zap.Logger
}

// NewAwrHandler creates a new AwrHandler
func NewAwrHandler(service *appissuance.WorkflowService, logger *zap.Logger) *AwrHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AwrHandler{service: service, logger: logger}
}

// Routes returns the /awr route group. Issue, reject and the issuance queue
// are limited to QA and Admin.
func (h *AwrHandler) Routes() *router.DomainGroup {
	approver := middleware.RequireApprover(h.logger)

	g := router.NewDomainGroup("/awr")
	g.POST("/requests", h.SubmitRequest)
	g.GET("/requests", h.AuditLog)
	g.GET("/requests/:id", h.GetRequest)
	g.POST("/duplicates/check", h.CheckDuplicates)

	g.GET("/queues/issuance", approver, h.IssuanceQueue)
	g.GET("/queues/receipt", h.ReceiptQueue)
	g.GET("/queues/return", h.ReturnQueue)
	g.GET("/queues/mine", h.MySubmitted)

	g.POST("/items/:id/issue", approver, h.Issue)
	g.POST("/items/:id/receive", h.Receive)
	g.POST("/items/:id/void", h.Void)
	g.POST("/items/:id/reject", approver, h.Reject)
	g.GET("/items/:id/document", h.Document)
	return g
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AwrHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.Routes().RegisterRoutes(rg)
}

// IssueRequest is the body of POST /items/:id/issue
type IssueRequest struct {
	Qty decimal.Decimal `json:"qty"`
}

// VoidRequest is the body of POST /items/:id/void
type VoidRequest struct {
	Remark string `json:"remark" binding:"required,max=500"`
}

// RejectRequest is the body of POST /items/:id/reject
type RejectRequest struct {
	Comment string `json:"comment" binding:"required,max=1000"`
}

// CheckDuplicatesRequest is the body of POST /duplicates/check
type CheckDuplicatesRequest struct {
	References       string `json:"references" binding:"required"`
	ExcludeRequestID *int64 `json:"exclude_request_id"`
}

// AuditLogQuery holds the query parameters of GET /requests
type AuditLogQuery struct {
	dto.ListRequest
	Status     string `form:"status"`
	Type       string `form:"awr_type"`
	PreparedBy string `form:"prepared_by"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// SubmitRequest handles POST /requests
func (h *AwrHandler) SubmitRequest(c *gin.Context) {
	var req appissuance.SubmitRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.Submitter = middleware.GetActor(c)

	result, err := h.service.SubmitRequest(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetRequest handles GET /requests/:id
func (h *AwrHandler) GetRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request id")
		return
	}
	result, err := h.service.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AuditLog handles GET /requests
func (h *AwrHandler) AuditLog(c *gin.Context) {
	var q AuditLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input := appissuance.AuditLogInput{
		Filter:     q.ToFilter(),
		Type:       q.Type,
		PreparedBy: q.PreparedBy,
	}
	if q.Status != "" {
		for _, s := range strings.Split(q.Status, ",") {
			if s = strings.TrimSpace(s); s != "" {
				input.Statuses = append(input.Statuses, s)
			}
		}
	}
	var ok bool
	if input.From, ok = parseDate(q.From); !ok {
		h.BadRequest(c, "from must be a date in YYYY-MM-DD format")
		return
	}
	if input.To, ok = parseDate(q.To); !ok {
		h.BadRequest(c, "to must be a date in YYYY-MM-DD format")
		return
	}
	if input.To != nil {
		// inclusive end date
		end := input.To.AddDate(0, 0, 1)
		input.To = &end
	}

	page, err := h.service.AuditLog(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(page))
}

// CheckDuplicates handles POST /duplicates/check
func (h *AwrHandler) CheckDuplicates(c *gin.Context) {
	var req CheckDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	warnings, err := h.service.FindDuplicates(c.Request.Context(), req.References, req.ExcludeRequestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"warnings": warnings})
}

// IssuanceQueue handles GET /queues/issuance
func (h *AwrHandler) IssuanceQueue(c *gin.Context) {
	items, err := h.service.IssuanceQueue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ReceiptQueue handles GET /queues/receipt
func (h *AwrHandler) ReceiptQueue(c *gin.Context) {
	items, err := h.service.ReceiptQueue(c.Request.Context(), queueOwner(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ReturnQueue handles GET /queues/return
func (h *AwrHandler) ReturnQueue(c *gin.Context) {
	items, err := h.service.ReturnQueue(c.Request.Context(), queueOwner(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// MySubmitted handles GET /queues/mine
func (h *AwrHandler) MySubmitted(c *gin.Context) {
	items, err := h.service.MySubmitted(c.Request.Context(), middleware.GetActor(c).Username)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Issue handles POST /items/:id/issue
func (h *AwrHandler) Issue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item id")
		return
	}
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	result, err := h.service.ApproveAndIssue(c.Request.Context(), appissuance.IssueInput{
		ItemID: id,
		Qty:    req.Qty,
		Actor:  middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Receive handles POST /items/:id/receive
func (h *AwrHandler) Receive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item id")
		return
	}
	result, err := h.service.PrintAndReceive(c.Request.Context(), appissuance.ReceiveInput{
		ItemID: id,
		Actor:  middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Void handles POST /items/:id/void
func (h *AwrHandler) Void(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item id")
		return
	}
	var req VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	result, err := h.service.Void(c.Request.Context(), appissuance.VoidInput{
		ItemID: id,
		Actor:  middleware.GetActor(c),
		Remark: req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reject handles POST /items/:id/reject
func (h *AwrHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item id")
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	result, err := h.service.Reject(c.Request.Context(), appissuance.RejectInput{
		ItemID:  id,
		Actor:   middleware.GetActor(c),
		Comment: req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Document handles GET /items/:id/document
func (h *AwrHandler) Document(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item id")
		return
	}
	link, err := h.service.DocumentLink(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// queueOwner is the caller, except that approvers may look at another
// preparer's queue with ?prepared_by=
func queueOwner(c *gin.Context) string {
	actor := middleware.GetActor(c)
	if other := strings.TrimSpace(c.Query("prepared_by")); other != "" && actor.Role.CanApprove() {
		return other
	}
	return actor.Username
}

// parseDate reads an optional YYYY-MM-DD value as UTC midnight
func parseDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, false
	}
	return &t, true
}
