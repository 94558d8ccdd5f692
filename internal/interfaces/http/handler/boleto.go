package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/izakgestao/backend/internal/application/ledger"
	"github.com/izakgestao/backend/internal/interfaces/http/dto"
)

// BoletoHandler exposes boleto queries, cancellation and the provider
// webhook. Issuance lives on the account resource.
type BoletoHandler struct {
	BaseHandler
	boletoService  *appledger.BoletoService
	webhookService *appledger.WebhookService
	webhookAuth    gin.HandlerFunc
}

// NewBoletoHandler creates a new BoletoHandler
func NewBoletoHandler(
	boletoService *appledger.BoletoService,
	webhookService *appledger.WebhookService,
	webhookAuth gin.HandlerFunc,
) *BoletoHandler {
	return &BoletoHandler{
		boletoService:  boletoService,
		webhookService: webhookService,
		webhookAuth:    webhookAuth,
	}
}

// RegisterRoutes registers boleto routes
func (h *BoletoHandler) RegisterRoutes(rg *gin.RouterGroup) {
	boletos := rg.Group("/boletos")
	{
		boletos.GET("/:id", h.Query)
		boletos.POST("/:id/cancel", h.Cancel)
	}
}

// RegisterWebhookRoutes registers the provider-facing webhook outside the
// JWT-protected group; it authenticates with the webhook token instead
func (h *BoletoHandler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	if h.webhookAuth != nil {
		webhooks.Use(h.webhookAuth)
	}
	webhooks.POST("/boleto", h.Webhook)
}

// Query returns the boleto, refreshed from the provider when reachable
func (h *BoletoHandler) Query(c *gin.Context) {
	boletoID := c.Param("id")
	if boletoID == "" {
		h.BadRequest(c, "Invalid boleto id")
		return
	}

	record, err := h.boletoService.Query(c.Request.Context(), boletoID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Cancel voids an unpaid boleto with its provider
func (h *BoletoHandler) Cancel(c *gin.Context) {
	boletoID := c.Param("id")
	if boletoID == "" {
		h.BadRequest(c, "Invalid boleto id")
		return
	}

	record, err := h.boletoService.Cancel(c.Request.Context(), boletoID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// webhookBody is the inbound notification payload. Field names follow the
// PagBank notification shape; the mock provider posts the same shape.
type webhookBody struct {
	EventID string `json:"event_id"`
	Charge  struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		PaidAt string `json:"paid_at"`
	} `json:"charge"`
	// Flat fallbacks for simpler callers
	BoletoID string `json:"boleto_id"`
	Status   string `json:"status"`
}

// Webhook ingests a provider payment notification. Always answers 200 for
// duplicates so providers stop retrying.
func (h *BoletoHandler) Webhook(c *gin.Context) {
	var body webhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, "Invalid webhook payload: "+err.Error())
		return
	}

	req := appledger.WebhookRequest{
		EventID:  body.EventID,
		BoletoID: body.Charge.ID,
		Status:   body.Charge.Status,
	}
	if req.BoletoID == "" {
		req.BoletoID = body.BoletoID
	}
	if req.Status == "" {
		req.Status = body.Status
	}
	if body.Charge.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, body.Charge.PaidAt); err == nil {
			req.PaidAt = &t
		}
	}

	result, err := h.webhookService.Handle(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
