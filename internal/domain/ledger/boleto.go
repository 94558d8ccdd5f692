package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/shared"
)

// BoletoStatus represents the lifecycle state of an issued boleto
type BoletoStatus string

const (
	BoletoStatusIssued   BoletoStatus = "ISSUED"
	BoletoStatusPaid     BoletoStatus = "PAID"
	BoletoStatusCanceled BoletoStatus = "CANCELED"
)

// IsValid checks if the status is a valid BoletoStatus
func (s BoletoStatus) IsValid() bool {
	switch s {
	case BoletoStatusIssued, BoletoStatusPaid, BoletoStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of BoletoStatus
func (s BoletoStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed
func (s BoletoStatus) IsTerminal() bool {
	return s == BoletoStatusPaid || s == BoletoStatusCanceled
}

// BoletoRecord is the local record of a boleto issued through a provider.
// It is embedded in the owning account and mirrored in the boleto cache so
// webhooks can locate the account by provider id.
type BoletoRecord struct {
	ID            string       `json:"id"` // Provider-assigned charge id
	Provider      ProviderType `json:"provider"`
	Status        BoletoStatus `json:"status"`
	Barcode       string       `json:"barcode,omitempty"`
	DigitableLine string       `json:"digitable_line,omitempty"`
	PDFURL        string       `json:"pdf_url,omitempty"`
	DueDate       time.Time    `json:"due_date"`
	AccountID     *uuid.UUID   `json:"account_id,omitempty"`
	IssuedAt      time.Time    `json:"issued_at"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
	CanceledAt    *time.Time   `json:"canceled_at,omitempty"`
}

// NewBoletoRecord creates a record for a freshly issued boleto
func NewBoletoRecord(id string, provider ProviderType, dueDate time.Time) (*BoletoRecord, error) {
	if id == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Boleto id cannot be empty")
	}
	if !provider.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Boleto provider is not valid")
	}

	return &BoletoRecord{
		ID:       id,
		Provider: provider,
		Status:   BoletoStatusIssued,
		DueDate:  dueDate,
		IssuedAt: time.Now(),
	}, nil
}

// IsLive returns true while the boleto can still be paid
func (b *BoletoRecord) IsLive() bool {
	return b.Status == BoletoStatusIssued
}

// MarkPaid transitions the boleto to paid. Paid is terminal, so replaying
// the same confirmation is a no-op rather than an error.
func (b *BoletoRecord) MarkPaid(paidAt time.Time) error {
	if b.Status == BoletoStatusPaid {
		return nil
	}
	if b.Status == BoletoStatusCanceled {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Boleto %s is canceled and cannot be paid", b.ID))
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	b.Status = BoletoStatusPaid
	b.PaidAt = &paidAt

	return nil
}

// Cancel transitions the boleto to canceled. A paid boleto cannot be
// canceled; money already moved.
func (b *BoletoRecord) Cancel() error {
	if b.Status == BoletoStatusCanceled {
		return nil
	}
	if b.Status == BoletoStatusPaid {
		return shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("Boleto %s is already paid and cannot be canceled", b.ID))
	}

	now := time.Now()
	b.Status = BoletoStatusCanceled
	b.CanceledAt = &now

	return nil
}

// Merge overlays non-empty provider fields onto the local record. Provider
// data wins for fields it reports; local-only fields are preserved.
func (b *BoletoRecord) Merge(remote *BoletoRecord) {
	if remote == nil {
		return
	}
	if remote.Status.IsValid() {
		b.Status = remote.Status
	}
	if remote.Barcode != "" {
		b.Barcode = remote.Barcode
	}
	if remote.DigitableLine != "" {
		b.DigitableLine = remote.DigitableLine
	}
	if remote.PDFURL != "" {
		b.PDFURL = remote.PDFURL
	}
	if !remote.DueDate.IsZero() {
		b.DueDate = remote.DueDate
	}
	if remote.PaidAt != nil {
		b.PaidAt = remote.PaidAt
	}
	if remote.CanceledAt != nil {
		b.CanceledAt = remote.CanceledAt
	}
}

// Value implements driver.Valuer so the record can live as JSONB on the account
func (b *BoletoRecord) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for database retrieval
func (b *BoletoRecord) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("cannot scan %T into BoletoRecord", value)
	}
}
