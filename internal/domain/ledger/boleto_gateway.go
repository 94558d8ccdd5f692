package ledger

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/domain/shared/valueobject"
)

// ProviderType identifies a boleto provider implementation
type ProviderType string

const (
	ProviderTypeMock    ProviderType = "MOCK"
	ProviderTypePagBank ProviderType = "PAGBANK"
)

// IsValid checks if the type is a valid ProviderType
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderTypeMock, ProviderTypePagBank:
		return true
	}
	return false
}

// String returns the string representation of ProviderType
func (p ProviderType) String() string {
	return string(p)
}

var nonDigits = regexp.MustCompile(`\D`)

// DigitsOnly strips everything but digits from a document or phone number
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// PayerAddress is the payer's billing address. Missing fields are filled
// from configured defaults before the request reaches a remote provider.
type PayerAddress struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	Locality   string `json:"locality"` // Bairro
	City       string `json:"city"`
	Region     string `json:"region"` // UF, two letters
	PostalCode string `json:"postal_code"`
}

// Payer identifies who the boleto is drawn against
type Payer struct {
	Name    string       `json:"name"`
	TaxID   string       `json:"tax_id"` // CPF or CNPJ, digits or formatted
	Email   string       `json:"email,omitempty"`
	Phone   string       `json:"phone,omitempty"`
	Address PayerAddress `json:"address"`
}

// IssueBoletoRequest carries everything a provider needs to issue a charge
type IssueBoletoRequest struct {
	ReferenceID  string            `json:"reference_id"` // Local account id, echoed back by webhooks
	Amount       valueobject.Money `json:"amount"`
	DueDate      time.Time         `json:"due_date"`
	Description  string            `json:"description"`
	Payer        Payer             `json:"payer"`
	Instructions string            `json:"instructions,omitempty"`
}

// Validate checks the request before it is handed to a provider
func (r *IssueBoletoRequest) Validate() error {
	if r.Amount.Amount().Sign() <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "Boleto amount must be positive")
	}
	if r.DueDate.IsZero() {
		return shared.NewDomainError(shared.CodeValidation, "Boleto due date is required")
	}
	if r.Payer.Name == "" {
		return shared.NewDomainError(shared.CodeValidation, "Payer name cannot be empty")
	}
	taxID := DigitsOnly(r.Payer.TaxID)
	if len(taxID) != 11 && len(taxID) != 14 {
		return shared.NewDomainError(shared.CodeValidation, "Payer tax id must be a CPF (11 digits) or CNPJ (14 digits)")
	}
	return nil
}

// IssueBoletoResponse is the provider's answer to an issue request
type IssueBoletoResponse struct {
	ID            string       `json:"id"`
	Provider      ProviderType `json:"provider"`
	Status        BoletoStatus `json:"status"`
	Barcode       string       `json:"barcode,omitempty"`
	DigitableLine string       `json:"digitable_line,omitempty"`
	PDFURL        string       `json:"pdf_url,omitempty"`
	DueDate       time.Time    `json:"due_date"`
}

// QueryBoletoResponse is the provider's current view of a charge
type QueryBoletoResponse struct {
	ID            string       `json:"id"`
	Status        BoletoStatus `json:"status"`
	Barcode       string       `json:"barcode,omitempty"`
	DigitableLine string       `json:"digitable_line,omitempty"`
	PDFURL        string       `json:"pdf_url,omitempty"`
	DueDate       time.Time    `json:"due_date"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
}

// ToRecord converts a provider view into a mergeable local record
func (r *QueryBoletoResponse) ToRecord() *BoletoRecord {
	return &BoletoRecord{
		ID:            r.ID,
		Status:        r.Status,
		Barcode:       r.Barcode,
		DigitableLine: r.DigitableLine,
		PDFURL:        r.PDFURL,
		DueDate:       r.DueDate,
		PaidAt:        r.PaidAt,
	}
}

// CancelBoletoResponse reports the outcome of a cancel request
type CancelBoletoResponse struct {
	ID         string       `json:"id"`
	Status     BoletoStatus `json:"status"`
	CanceledAt time.Time    `json:"canceled_at"`
}

// BoletoGateway is the port every boleto provider adapter implements
type BoletoGateway interface {
	// ProviderType identifies the adapter
	ProviderType() ProviderType

	// Issue creates a new boleto charge with the provider
	Issue(ctx context.Context, req *IssueBoletoRequest) (*IssueBoletoResponse, error)

	// Query fetches the provider's current state of a charge
	Query(ctx context.Context, boletoID string) (*QueryBoletoResponse, error)

	// Cancel voids an unpaid charge with the provider
	Cancel(ctx context.Context, boletoID string) (*CancelBoletoResponse, error)
}

// GatewayError wraps a provider-side failure with whatever detail the
// provider returned, so callers can log it and surface a 502.
type GatewayError struct {
	Provider   ProviderType
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Provider, e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

// Unwrap exposes the underlying transport error, if any
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a GatewayError for a failed provider call
func NewGatewayError(provider ProviderType, operation string, statusCode int, body string, err error) *GatewayError {
	return &GatewayError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}
