package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// AccountResponse represents a ledger account in API responses
type AccountResponse struct {
	ID            uuid.UUID       `json:"id"`
	Kind          string          `json:"kind"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Counterparty  string          `json:"counterparty"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Boleto        *BoletoResponse `json:"boleto,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// BoletoResponse represents an issued boleto in API responses
type BoletoResponse struct {
	ID            string     `json:"id"`
	Provider      string     `json:"provider"`
	Status        string     `json:"status"`
	Barcode       string     `json:"barcode,omitempty"`
	DigitableLine string     `json:"digitable_line,omitempty"`
	PDFURL        string     `json:"pdf_url,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	IssuedAt      time.Time  `json:"issued_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
}

// CreateAccountRequest represents a request to create a ledger account
type CreateAccountRequest struct {
	Kind         string          `json:"kind" binding:"required,oneof=RECEIVABLE PAYABLE"`
	Description  string          `json:"description" binding:"required"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	DueDate      time.Time       `json:"due_date" binding:"required"`
	Counterparty string          `json:"counterparty"`
	Notes        string          `json:"notes"`
}

// UpdateAccountRequest represents a request to update a ledger account
type UpdateAccountRequest struct {
	Description  string          `json:"description" binding:"required"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	DueDate      time.Time       `json:"due_date" binding:"required"`
	Counterparty string          `json:"counterparty"`
	Notes        string          `json:"notes"`
}

// AccountListFilter defines filtering options for account list queries
type AccountListFilter struct {
	Kind         string     `form:"kind"`
	Status       string     `form:"status"`
	Category     string     `form:"category"`
	Counterparty string     `form:"counterparty"`
	DueAfter     *time.Time `form:"due_after"`
	DueBefore    *time.Time `form:"due_before"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
}

// AccountListResponse is a paginated account listing
type AccountListResponse struct {
	Items    []*AccountResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// MarkPaidRequest represents a request to settle an account
type MarkPaidRequest struct {
	PaidDate      *time.Time `json:"paid_date"`
	PaymentMethod string     `json:"payment_method"`
}

// MarkPaidResponse reports the settlement outcome, including whether the
// till movement could be posted
type MarkPaidResponse struct {
	Account        *AccountResponse `json:"account"`
	MovementPosted bool             `json:"movement_posted"`
	Warning        string           `json:"warning,omitempty"`
}

// SummaryResponse aggregates ledger totals for the dashboard
type SummaryResponse struct {
	ReceivableOpen    decimal.Decimal `json:"receivable_open"`
	ReceivableOverdue decimal.Decimal `json:"receivable_overdue"`
	PayableOpen       decimal.Decimal `json:"payable_open"`
	PayableOverdue    decimal.Decimal `json:"payable_overdue"`
	ReceivedThisMonth decimal.Decimal `json:"received_this_month"`
	PaidThisMonth     decimal.Decimal `json:"paid_this_month"`
}

// OpenTillSessionRequest represents a request to open the till
type OpenTillSessionRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpenedBy       string          `json:"opened_by" binding:"required"`
}

// CloseTillSessionRequest represents a request to close the till against a count
type CloseTillSessionRequest struct {
	ReportedCash decimal.Decimal `json:"reported_cash"`
	Notes        string          `json:"notes"`
}

// PostMovementRequest represents a manual till movement
type PostMovementRequest struct {
	Type          string          `json:"type" binding:"required,oneof=ENTRADA SAIDA"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
}

// MovementResponse represents a till movement in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	AccountID     *uuid.UUID      `json:"account_id,omitempty"`
	Automatic     bool            `json:"automatic"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TillSessionResponse represents a till session in API responses
type TillSessionResponse struct {
	ID             uuid.UUID           `json:"id"`
	Status         string              `json:"status"`
	OpenedBy       string              `json:"opened_by"`
	OpenedAt       time.Time           `json:"opened_at"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	TotalEntradas  decimal.Decimal     `json:"total_entradas"`
	TotalSaidas    decimal.Decimal     `json:"total_saidas"`
	ReportedCash   *decimal.Decimal    `json:"reported_cash,omitempty"`
	Discrepancy    *decimal.Decimal    `json:"discrepancy,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	Movements      []*MovementResponse `json:"movements"`
}

// IssueBoletoAPIRequest represents a request to issue a boleto for an account
type IssueBoletoAPIRequest struct {
	Provider     string `json:"provider" binding:"omitempty,oneof=MOCK PAGBANK"`
	PayerName    string `json:"payer_name" binding:"required"`
	PayerTaxID   string `json:"payer_tax_id" binding:"required,taxid"`
	PayerEmail   string `json:"payer_email"`
	PayerPhone   string `json:"payer_phone"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Locality     string `json:"locality"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Instructions string `json:"instructions"`
}

// WebhookRequest is the normalized payload extracted from a provider webhook
type WebhookRequest struct {
	EventID  string     `json:"event_id"`
	BoletoID string     `json:"boleto_id"`
	Status   string     `json:"status"`
	PaidAt   *time.Time `json:"paid_at"`
}

// WebhookResult reports how a webhook was handled
type WebhookResult struct {
	Processed      bool             `json:"processed"`
	Duplicate      bool             `json:"duplicate"`
	Account        *AccountResponse `json:"account,omitempty"`
	MovementPosted bool             `json:"movement_posted"`
}

// ToAccountResponse converts a domain account to its API shape, deriving the
// status at the given instant so read paths never show a stale status
func ToAccountResponse(a *ledger.Account, now time.Time) *AccountResponse {
	resp := &AccountResponse{
		ID:            a.ID,
		Kind:          a.Kind.String(),
		Description:   a.Description,
		Category:      a.Category,
		Amount:        a.Amount,
		DueDate:       a.DueDate,
		PaidDate:      a.PaidDate,
		PaymentMethod: a.PaymentMethod,
		Counterparty:  a.Counterparty,
		Status:        a.EffectiveStatus(now).String(),
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		Version:       a.GetVersion(),
	}
	if a.Boleto != nil {
		resp.Boleto = ToBoletoResponse(a.Boleto)
	}
	return resp
}

// ToBoletoResponse converts a boleto record to its API shape
func ToBoletoResponse(b *ledger.BoletoRecord) *BoletoResponse {
	return &BoletoResponse{
		ID:            b.ID,
		Provider:      b.Provider.String(),
		Status:        b.Status.String(),
		Barcode:       b.Barcode,
		DigitableLine: b.DigitableLine,
		PDFURL:        b.PDFURL,
		DueDate:       b.DueDate,
		IssuedAt:      b.IssuedAt,
		PaidAt:        b.PaidAt,
		CanceledAt:    b.CanceledAt,
	}
}

// ToMovementResponse converts a till movement to its API shape
func ToMovementResponse(m *ledger.Movement) *MovementResponse {
	return &MovementResponse{
		ID:            m.ID,
		SessionID:     m.SessionID,
		Type:          m.Type.String(),
		Amount:        m.Amount,
		Description:   m.Description,
		Category:      m.Category,
		PaymentMethod: m.PaymentMethod,
		AccountID:     m.AccountID,
		Automatic:     m.Automatic(),
		CreatedAt:     m.CreatedAt,
	}
}

// ToTillSessionResponse converts a till session to its API shape
func ToTillSessionResponse(s *ledger.TillSession) *TillSessionResponse {
	movements := make([]*MovementResponse, 0, len(s.Movements))
	for i := range s.Movements {
		movements = append(movements, ToMovementResponse(&s.Movements[i]))
	}
	return &TillSessionResponse{
		ID:             s.ID,
		Status:         s.Status.String(),
		OpenedBy:       s.OpenedBy,
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		TotalEntradas:  s.TotalEntradas(),
		TotalSaidas:    s.TotalSaidas(),
		ReportedCash:   s.ReportedCash,
		Discrepancy:    s.Discrepancy,
		Notes:          s.Notes,
		Movements:      movements,
	}
}
