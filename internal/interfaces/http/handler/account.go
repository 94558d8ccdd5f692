package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/izakgestao/backend/internal/application/ledger"
)

// AccountHandler exposes the receivable/payable ledger
type AccountHandler struct {
	BaseHandler
	ledgerService  *appledger.LedgerService
	reconciliation *appledger.ReconciliationService
	boletoService  *appledger.BoletoService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(
	ledgerService *appledger.LedgerService,
	reconciliation *appledger.ReconciliationService,
	boletoService *appledger.BoletoService,
) *AccountHandler {
	return &AccountHandler{
		ledgerService:  ledgerService,
		reconciliation: reconciliation,
		boletoService:  boletoService,
	}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.Create)
		accounts.GET("", h.List)
		accounts.GET("/summary", h.Summary)
		accounts.GET("/pending-postings", h.PendingPostings)
		accounts.GET("/:id", h.Get)
		accounts.PUT("/:id", h.Update)
		accounts.DELETE("/:id", h.Delete)
		accounts.POST("/:id/paid", h.MarkPaid)
		accounts.POST("/:id/paid/retry", h.RetryPosting)
		accounts.POST("/:id/boleto", h.IssueBoleto)
	}
}

// accountListQuery binds list query parameters; dates are parsed by hand
// so both RFC3339 and plain dates are accepted
type accountListQuery struct {
	Kind         string `form:"kind" binding:"omitempty,oneof=RECEIVABLE PAYABLE"`
	Status       string `form:"status" binding:"omitempty,oneof=PENDING PAID OVERDUE"`
	Category     string `form:"category"`
	Counterparty string `form:"counterparty"`
	DueAfter     string `form:"due_after"`
	DueBefore    string `form:"due_before"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size" binding:"omitempty,max=200"`
}

// Create creates a ledger account
func (h *AccountHandler) Create(c *gin.Context) {
	var req appledger.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid account payload: "+err.Error())
		return
	}

	account, err := h.ledgerService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// List lists ledger accounts with filters and pagination
func (h *AccountHandler) List(c *gin.Context) {
	var query accountListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	filter := appledger.AccountListFilter{
		Kind:         query.Kind,
		Status:       query.Status,
		Category:     query.Category,
		Counterparty: query.Counterparty,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	var ok bool
	if filter.DueAfter, ok = parseDateParam(query.DueAfter); !ok {
		h.BadRequest(c, "Invalid due_after date")
		return
	}
	if filter.DueBefore, ok = parseDateParam(query.DueBefore); !ok {
		h.BadRequest(c, "Invalid due_before date")
		return
	}

	list, err := h.ledgerService.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list.Items, list.Total, list.Page, list.PageSize)
}

// Get retrieves a ledger account
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid account id")
		return
	}

	account, err := h.ledgerService.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Update updates a ledger account
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid account id")
		return
	}

	var req appledger.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid account payload: "+err.Error())
		return
	}

	account, err := h.ledgerService.UpdateAccount(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Delete removes a ledger account. Paid accounts need force=true.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid account id")
		return
	}
	force := c.Query("force") == "true"

	if err := h.ledgerService.DeleteAccount(c.Request.Context(), id, force); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// MarkPaid settles an account and posts the till movement
func (h *AccountHandler) MarkPaid(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid account id")
		return
	}

	var req appledger.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid settlement payload: "+err.Error())
		return
	}

	result, err := h.reconciliation.MarkPaid(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RetryPosting retries the till movement for a settled account
func (h *AccountHandler) RetryPosting(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid account id")
		return
	}

	result, err := h.reconciliation.RetryPosting(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PendingPostings lists paid accounts whose till movement is still missing
func (h *AccountHandler) PendingPostings(c *gin.Context) {
	accounts, err := h.reconciliation.PendingPostings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// Summary aggregates ledger totals for the dashboard
func (h *AccountHandler) Summary(c *gin.Context) {
	summary, err := h.ledgerService.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// IssueBoleto issues a boleto for a receivable account
func (h *AccountHandler) IssueBoleto(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid account id")
		return
	}

	var req appledger.IssueBoletoAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid boleto payload: "+err.Error())
		return
	}

	record, err := h.boletoService.Issue(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// parseDateParam accepts RFC3339 timestamps or plain yyyy-mm-dd dates
func parseDateParam(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, true
	}
	return nil, false
}
