package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType classifies a till movement by cash direction
type MovementType string

const (
	MovementTypeEntrada MovementType = "ENTRADA" // Cash in
	MovementTypeSaida   MovementType = "SAIDA"   // Cash out
)

// IsValid checks if the type is a valid MovementType
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntrada, MovementTypeSaida:
		return true
	}
	return false
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// TillSessionStatus represents the lifecycle state of a till session
type TillSessionStatus string

const (
	TillSessionStatusOpen   TillSessionStatus = "OPEN"
	TillSessionStatusClosed TillSessionStatus = "CLOSED"
)

// IsValid checks if the status is a valid TillSessionStatus
func (s TillSessionStatus) IsValid() bool {
	switch s {
	case TillSessionStatusOpen, TillSessionStatusClosed:
		return true
	}
	return false
}

// String returns the string representation of TillSessionStatus
func (s TillSessionStatus) String() string {
	return string(s)
}

// Movement is a single cash entry or exit recorded against a till session.
// Movements are append-only; corrections are made with a compensating entry.
type Movement struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Type          MovementType    `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	AccountID     *uuid.UUID      `json:"account_id,omitempty"` // Set when auto-posted by a settlement
	CreatedAt     time.Time       `json:"created_at"`
}

// NewMovement creates a till movement
func NewMovement(sessionID uuid.UUID, movType MovementType, amount decimal.Decimal, description string) (*Movement, error) {
	if !movType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement type is not valid")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement amount must be positive")
	}
	if description == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement description cannot be empty")
	}

	return &Movement{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Type:        movType,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}

// Automatic reports whether the movement was auto-posted by an account
// settlement rather than entered by hand.
func (m *Movement) Automatic() bool {
	return m.AccountID != nil
}

// Signed returns the amount with direction applied (entradas positive,
// saidas negative).
func (m *Movement) Signed() decimal.Decimal {
	if m.Type == MovementTypeSaida {
		return m.Amount.Neg()
	}
	return m.Amount
}

// Movements is the ordered movement log of a session
type Movements []Movement

// TillSession represents one operating period of the cash till (caixa).
// The closing balance is maintained incrementally as movements are appended
// and must always equal opening + entradas - saidas.
type TillSession struct {
	shared.BaseAggregateRoot
	Status         TillSessionStatus `json:"status"`
	OpenedBy       string            `json:"opened_by"`
	OpenedAt       time.Time         `json:"opened_at"`
	ClosedAt       *time.Time        `json:"closed_at,omitempty"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	ClosingBalance decimal.Decimal   `json:"closing_balance"`
	ReportedCash   *decimal.Decimal  `json:"reported_cash,omitempty"`
	Discrepancy    *decimal.Decimal  `json:"discrepancy,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Movements      Movements         `json:"movements"`
}

// NewTillSession opens a till session with the given float
func NewTillSession(openingBalance decimal.Decimal, openedBy string) (*TillSession, error) {
	if openingBalance.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Opening balance cannot be negative")
	}
	if openedBy == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Opened by cannot be empty")
	}

	now := time.Now()
	return &TillSession{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            TillSessionStatusOpen,
		OpenedBy:          openedBy,
		OpenedAt:          now,
		OpeningBalance:    openingBalance,
		ClosingBalance:    openingBalance,
		Movements:         Movements{},
	}, nil
}

// IsOpen returns true if the session still accepts movements
func (s *TillSession) IsOpen() bool {
	return s.Status == TillSessionStatusOpen
}

// Append records a movement and updates the running balance
func (s *TillSession) Append(m *Movement) error {
	if m == nil {
		return shared.NewDomainError(shared.CodeValidation, "Movement cannot be nil")
	}
	if !s.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Till session %s is closed", s.ID))
	}
	if m.AccountID != nil {
		for i := range s.Movements {
			if s.Movements[i].AccountID != nil && *s.Movements[i].AccountID == *m.AccountID {
				return shared.NewDomainError(shared.CodeConflict,
					fmt.Sprintf("Movement for account %s already posted", m.AccountID))
			}
		}
	}

	m.SessionID = s.ID
	s.Movements = append(s.Movements, *m)
	s.ClosingBalance = s.ClosingBalance.Add(m.Signed())
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// TotalEntradas sums all cash-in movements
func (s *TillSession) TotalEntradas() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Movements {
		if s.Movements[i].Type == MovementTypeEntrada {
			total = total.Add(s.Movements[i].Amount)
		}
	}
	return total
}

// TotalSaidas sums all cash-out movements
func (s *TillSession) TotalSaidas() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Movements {
		if s.Movements[i].Type == MovementTypeSaida {
			total = total.Add(s.Movements[i].Amount)
		}
	}
	return total
}

// ExpectedBalance recomputes opening + entradas - saidas from the movement
// log. It must always agree with the incrementally maintained ClosingBalance.
func (s *TillSession) ExpectedBalance() decimal.Decimal {
	return s.OpeningBalance.Add(s.TotalEntradas()).Sub(s.TotalSaidas())
}

// Close finalizes the session against a physical cash count. The discrepancy
// is reported minus expected: positive means surplus, negative means shortage.
func (s *TillSession) Close(reportedCash decimal.Decimal, notes string) error {
	if !s.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Till session %s is already closed", s.ID))
	}
	if reportedCash.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Reported cash cannot be negative")
	}

	now := time.Now()
	expected := s.ExpectedBalance()
	discrepancy := reportedCash.Sub(expected)

	s.Status = TillSessionStatusClosed
	s.ClosedAt = &now
	s.ClosingBalance = expected
	s.ReportedCash = &reportedCash
	s.Discrepancy = &discrepancy
	if notes != "" {
		s.Notes = notes
	}
	s.UpdatedAt = now
	s.IncrementVersion()

	return nil
}
