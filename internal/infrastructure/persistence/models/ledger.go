package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for ledger accounts
type AccountModel struct {
	AggregateModel
	Kind          string               `gorm:"type:varchar(20);not null;index"`
	Description   string               `gorm:"type:varchar(500);not null"`
	Category      string               `gorm:"type:varchar(100);index"`
	Amount        decimal.Decimal      `gorm:"type:decimal(14,2);not null"`
	DueDate       time.Time            `gorm:"not null;index"`
	PaidDate      *time.Time           `gorm:"index"`
	PaymentMethod string               `gorm:"type:varchar(50)"`
	Counterparty  string               `gorm:"type:varchar(200);index"`
	Status        string               `gorm:"type:varchar(20);not null;index"`
	Notes         string               `gorm:"type:text"`
	Boleto        *ledger.BoletoRecord `gorm:"type:jsonb"`
	BoletoID      *string              `gorm:"type:varchar(64);index"`
}

// TableName returns the table name for AccountModel
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain account
func (m *AccountModel) ToDomain() *ledger.Account {
	account := &ledger.Account{
		Kind:          ledger.AccountKind(m.Kind),
		Description:   m.Description,
		Category:      m.Category,
		Amount:        m.Amount,
		DueDate:       m.DueDate,
		PaidDate:      m.PaidDate,
		PaymentMethod: m.PaymentMethod,
		Counterparty:  m.Counterparty,
		Status:        ledger.AccountStatus(m.Status),
		Notes:         m.Notes,
		Boleto:        m.Boleto,
	}
	m.PopulateAggregateRoot(&account.BaseAggregateRoot)
	return account
}

// AccountModelFromDomain converts a domain account to its persistence model
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		Kind:          a.Kind.String(),
		Description:   a.Description,
		Category:      a.Category,
		Amount:        a.Amount,
		DueDate:       a.DueDate,
		PaidDate:      a.PaidDate,
		PaymentMethod: a.PaymentMethod,
		Counterparty:  a.Counterparty,
		Status:        a.Status.String(),
		Notes:         a.Notes,
		Boleto:        a.Boleto,
	}
	if a.Boleto != nil {
		id := a.Boleto.ID
		m.BoletoID = &id
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// TillSessionModel is the persistence model for till sessions
type TillSessionModel struct {
	AggregateModel
	Status         string           `gorm:"type:varchar(20);not null;index"`
	OpenedBy       string           `gorm:"type:varchar(100);not null"`
	OpenedAt       time.Time        `gorm:"not null;index"`
	ClosedAt       *time.Time       ``
	OpeningBalance decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	ClosingBalance decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	ReportedCash   *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Discrepancy    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Notes          string           `gorm:"type:text"`
	Movements      []MovementModel  `gorm:"foreignKey:SessionID;references:ID"`
}

// TableName returns the table name for TillSessionModel
func (TillSessionModel) TableName() string {
	return "till_sessions"
}

// ToDomain converts the model to a domain till session
func (m *TillSessionModel) ToDomain() *ledger.TillSession {
	session := &ledger.TillSession{
		Status:         ledger.TillSessionStatus(m.Status),
		OpenedBy:       m.OpenedBy,
		OpenedAt:       m.OpenedAt,
		ClosedAt:       m.ClosedAt,
		OpeningBalance: m.OpeningBalance,
		ClosingBalance: m.ClosingBalance,
		ReportedCash:   m.ReportedCash,
		Discrepancy:    m.Discrepancy,
		Notes:          m.Notes,
		Movements:      make(ledger.Movements, 0, len(m.Movements)),
	}
	m.PopulateAggregateRoot(&session.BaseAggregateRoot)
	for i := range m.Movements {
		session.Movements = append(session.Movements, *m.Movements[i].ToDomain())
	}
	return session
}

// TillSessionModelFromDomain converts a domain till session to its persistence model
func TillSessionModelFromDomain(s *ledger.TillSession) *TillSessionModel {
	m := &TillSessionModel{
		Status:         s.Status.String(),
		OpenedBy:       s.OpenedBy,
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		ReportedCash:   s.ReportedCash,
		Discrepancy:    s.Discrepancy,
		Notes:          s.Notes,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i := range s.Movements {
		m.Movements = append(m.Movements, *MovementModelFromDomain(&s.Movements[i]))
	}
	return m
}

// MovementModel is the persistence model for till movements. The unique
// index on AccountID is what makes settlement posting idempotent at the
// database level: two settlements of the same account cannot both insert.
type MovementModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Description   string          `gorm:"type:varchar(500);not null"`
	Category      string          `gorm:"type:varchar(100)"`
	PaymentMethod string          `gorm:"type:varchar(50)"`
	AccountID     *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_movements_account"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for MovementModel
func (MovementModel) TableName() string {
	return "till_movements"
}

// ToDomain converts the model to a domain movement
func (m *MovementModel) ToDomain() *ledger.Movement {
	return &ledger.Movement{
		ID:            m.ID,
		SessionID:     m.SessionID,
		Type:          ledger.MovementType(m.Type),
		Amount:        m.Amount,
		Description:   m.Description,
		Category:      m.Category,
		PaymentMethod: m.PaymentMethod,
		AccountID:     m.AccountID,
		CreatedAt:     m.CreatedAt,
	}
}

// MovementModelFromDomain converts a domain movement to its persistence model
func MovementModelFromDomain(mov *ledger.Movement) *MovementModel {
	return &MovementModel{
		ID:            mov.ID,
		SessionID:     mov.SessionID,
		Type:          mov.Type.String(),
		Amount:        mov.Amount,
		Description:   mov.Description,
		Category:      mov.Category,
		PaymentMethod: mov.PaymentMethod,
		AccountID:     mov.AccountID,
		CreatedAt:     mov.CreatedAt,
	}
}

// BoletoModel is the persistence model for the boleto cache, keyed by the
// provider-assigned charge id
type BoletoModel struct {
	ID            string     `gorm:"type:varchar(64);primary_key"`
	Provider      string     `gorm:"type:varchar(20);not null"`
	Status        string     `gorm:"type:varchar(20);not null;index"`
	Barcode       string     `gorm:"type:varchar(64)"`
	DigitableLine string     `gorm:"type:varchar(64)"`
	PDFURL        string     `gorm:"type:varchar(500)"`
	DueDate       time.Time  ``
	AccountID     *uuid.UUID `gorm:"type:uuid;index"`
	IssuedAt      time.Time  `gorm:"not null"`
	PaidAt        *time.Time ``
	CanceledAt    *time.Time ``
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for BoletoModel
func (BoletoModel) TableName() string {
	return "boletos"
}

// ToDomain converts the model to a domain boleto record
func (m *BoletoModel) ToDomain() *ledger.BoletoRecord {
	return &ledger.BoletoRecord{
		ID:            m.ID,
		Provider:      ledger.ProviderType(m.Provider),
		Status:        ledger.BoletoStatus(m.Status),
		Barcode:       m.Barcode,
		DigitableLine: m.DigitableLine,
		PDFURL:        m.PDFURL,
		DueDate:       m.DueDate,
		AccountID:     m.AccountID,
		IssuedAt:      m.IssuedAt,
		PaidAt:        m.PaidAt,
		CanceledAt:    m.CanceledAt,
	}
}

// BoletoModelFromDomain converts a domain boleto record to its persistence model
func BoletoModelFromDomain(b *ledger.BoletoRecord) *BoletoModel {
	return &BoletoModel{
		ID:            b.ID,
		Provider:      b.Provider.String(),
		Status:        b.Status.String(),
		Barcode:       b.Barcode,
		DigitableLine: b.DigitableLine,
		PDFURL:        b.PDFURL,
		DueDate:       b.DueDate,
		AccountID:     b.AccountID,
		IssuedAt:      b.IssuedAt,
		PaidAt:        b.PaidAt,
		CanceledAt:    b.CanceledAt,
	}
}
