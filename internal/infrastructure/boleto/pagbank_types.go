package boleto

import (
	"time"

	"github.com/izakgestao/backend/internal/domain/ledger"
)

const (
	pagbankDateLayout = "2006-01-02"

	pagbankStatusWaiting    = "WAITING"
	pagbankStatusAuthorized = "AUTHORIZED"
	pagbankStatusInAnalysis = "IN_ANALYSIS"
	pagbankStatusPaid       = "PAID"
	pagbankStatusDeclined   = "DECLINED"
	pagbankStatusCanceled   = "CANCELED"
)

// pagbankChargeRequest is the payload for POST /charges
type pagbankChargeRequest struct {
	ReferenceID   string               `json:"reference_id"`
	Description   string               `json:"description"`
	Amount        pagbankAmount        `json:"amount"`
	PaymentMethod pagbankPaymentMethod `json:"payment_method"`
}

type pagbankAmount struct {
	Value    int64  `json:"value"` // Centavos
	Currency string `json:"currency"`
}

type pagbankPaymentMethod struct {
	Type   string         `json:"type"`
	Boleto *pagbankBoleto `json:"boleto,omitempty"`
}

type pagbankBoleto struct {
	DueDate          string                  `json:"due_date"`
	InstructionLines pagbankInstructionLines `json:"instruction_lines"`
	Holder           pagbankHolder           `json:"holder"`
	Barcode          string                  `json:"barcode,omitempty"`
	FormattedBarcode string                  `json:"formatted_barcode,omitempty"`
}

type pagbankInstructionLines struct {
	Line1 string `json:"line_1"`
	Line2 string `json:"line_2,omitempty"`
}

type pagbankHolder struct {
	Name    string         `json:"name"`
	TaxID   string         `json:"tax_id"`
	Email   string         `json:"email,omitempty"`
	Address pagbankAddress `json:"address"`
}

type pagbankAddress struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	Locality   string `json:"locality"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	RegionCode string `json:"region_code"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// pagbankChargeResponse is the charge resource returned by the API
type pagbankChargeResponse struct {
	ID            string               `json:"id"`
	ReferenceID   string               `json:"reference_id"`
	Status        string               `json:"status"`
	CreatedAt     string               `json:"created_at"`
	PaidAt        string               `json:"paid_at,omitempty"`
	Amount        pagbankAmount        `json:"amount"`
	PaymentMethod pagbankPaymentMethod `json:"payment_method"`
	Links         []pagbankLink        `json:"links,omitempty"`
}

type pagbankLink struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Media string `json:"media,omitempty"`
	Type  string `json:"type,omitempty"`
}

// pagbankCancelRequest is the payload for POST /charges/{id}/cancel
type pagbankCancelRequest struct {
	Amount pagbankAmount `json:"amount"`
}

// pagbankErrorResponse carries the provider's error detail
type pagbankErrorResponse struct {
	ErrorMessages []struct {
		Code          string `json:"code"`
		Description   string `json:"description"`
		ParameterName string `json:"parameter_name,omitempty"`
	} `json:"error_messages"`
}

// pdfURL finds the boleto PDF link on the charge, if present
func (r *pagbankChargeResponse) pdfURL() string {
	for _, link := range r.Links {
		if link.Media == "application/pdf" || link.Type == "application/pdf" {
			return link.Href
		}
	}
	return ""
}

// paidAtTime parses the provider's paid timestamp, nil when absent or unparseable
func (r *pagbankChargeResponse) paidAtTime() *time.Time {
	if r.PaidAt == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, r.PaidAt); err == nil {
		return &t
	}
	return nil
}

// mapPagbankStatus maps a PagBank charge status onto the local lifecycle
func mapPagbankStatus(status string) ledger.BoletoStatus {
	switch status {
	case pagbankStatusPaid:
		return ledger.BoletoStatusPaid
	case pagbankStatusCanceled, pagbankStatusDeclined:
		return ledger.BoletoStatusCanceled
	default:
		return ledger.BoletoStatusIssued
	}
}
