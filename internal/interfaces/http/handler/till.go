package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/izakgestao/backend/internal/application/ledger"
	"github.com/izakgestao/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// TillHandler exposes till session operations
type TillHandler struct {
	BaseHandler
	tillService *appledger.TillService
}

// NewTillHandler creates a new TillHandler
func NewTillHandler(tillService *appledger.TillService) *TillHandler {
	return &TillHandler{tillService: tillService}
}

// RegisterRoutes registers till routes
func (h *TillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	till := rg.Group("/till")
	{
		till.POST("/open", h.Open)
		till.POST("/close", h.Close)
		till.POST("/movements", h.PostMovement)
		till.GET("/current", h.Current)
		till.GET("/sessions", h.ListSessions)
		till.GET("/sessions/:id", h.GetSession)
	}
}

// openTillBody relaxes OpenTillSessionRequest: opened_by may be omitted
// because it defaults to the authenticated user's email
type openTillBody struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpenedBy       string          `json:"opened_by"`
}

// Open opens a till session
func (h *TillHandler) Open(c *gin.Context) {
	var body openTillBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, "Invalid open payload: "+err.Error())
		return
	}
	if body.OpenedBy == "" {
		body.OpenedBy = middleware.GetJWTEmail(c)
	}
	if body.OpenedBy == "" {
		h.BadRequest(c, "opened_by is required")
		return
	}

	session, err := h.tillService.Open(c.Request.Context(), appledger.OpenTillSessionRequest{
		OpeningBalance: body.OpeningBalance,
		OpenedBy:       body.OpenedBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Close closes the open till session against a cash count
func (h *TillHandler) Close(c *gin.Context) {
	var req appledger.CloseTillSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid close payload: "+err.Error())
		return
	}

	session, err := h.tillService.Close(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// PostMovement records a manual cash movement on the open session
func (h *TillHandler) PostMovement(c *gin.Context) {
	var req appledger.PostMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid movement payload: "+err.Error())
		return
	}

	movement, err := h.tillService.PostMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Current returns the open till session
func (h *TillHandler) Current(c *gin.Context) {
	session, err := h.tillService.GetOpen(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// ListSessions lists till sessions newest first
func (h *TillHandler) ListSessions(c *gin.Context) {
	var query struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size" binding:"omitempty,max=200"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	sessions, err := h.tillService.ListSessions(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sessions)
}

// GetSession retrieves a till session with its movements
func (h *TillHandler) GetSession(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid session id")
		return
	}

	session, err := h.tillService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}
