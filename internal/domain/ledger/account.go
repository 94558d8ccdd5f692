package ledger

import (
	"fmt"
	"time"

	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AccountKind distinguishes money owed to the shop from money the shop owes
type AccountKind string

const (
	AccountKindReceivable AccountKind = "RECEIVABLE" // conta a receber
	AccountKindPayable    AccountKind = "PAYABLE"    // conta a pagar
)

// IsValid checks if the kind is a valid AccountKind
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindReceivable, AccountKindPayable:
		return true
	}
	return false
}

// String returns the string representation of AccountKind
func (k AccountKind) String() string {
	return string(k)
}

// MovementType returns the till movement type posted when an account of this
// kind is settled: receivables bring cash in, payables take cash out.
func (k AccountKind) MovementType() MovementType {
	if k == AccountKindReceivable {
		return MovementTypeEntrada
	}
	return MovementTypeSaida
}

// AccountStatus represents the settlement status of an account
type AccountStatus string

const (
	AccountStatusPending AccountStatus = "PENDING" // Unpaid, not yet due
	AccountStatusPaid    AccountStatus = "PAID"    // Settled, paid date recorded
	AccountStatusOverdue AccountStatus = "OVERDUE" // Unpaid and past due date
)

// IsValid checks if the status is a valid AccountStatus
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusPending, AccountStatusPaid, AccountStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of AccountStatus
func (s AccountStatus) String() string {
	return string(s)
}

// Account represents a receivable or payable entry in the financial ledger.
// It is the aggregate root that owns the optionally attached boleto.
type Account struct {
	shared.BaseAggregateRoot
	Kind          AccountKind     `json:"kind"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Counterparty  string          `json:"counterparty"`
	Status        AccountStatus   `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Boleto        *BoletoRecord   `json:"boleto,omitempty"`
}

// NewAccount creates a new ledger account in pending status
func NewAccount(
	kind AccountKind,
	description string,
	category string,
	amount valueobject.Money,
	dueDate time.Time,
	counterparty string,
) (*Account, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Account kind is not valid")
	}
	if description == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Description cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Due date is required")
	}

	a := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Description:       description,
		Category:          category,
		Amount:            amount.Amount(),
		DueDate:           dueDate,
		Counterparty:      counterparty,
		Status:            AccountStatusPending,
	}
	a.Recalculate(time.Now())

	return a, nil
}

// EffectiveStatus derives the status the account should carry at the given
// instant without mutating the aggregate. Read paths use this so listing
// never writes; explicit write operations call Recalculate instead.
func (a *Account) EffectiveStatus(now time.Time) AccountStatus {
	if a.PaidDate != nil {
		return AccountStatusPaid
	}
	if dayStart(a.DueDate).Before(dayStart(now)) {
		return AccountStatusOverdue
	}
	return AccountStatusPending
}

// Recalculate persists the derived status onto the aggregate. Called on
// every write so a stored status is never stale.
func (a *Account) Recalculate(now time.Time) {
	a.Status = a.EffectiveStatus(now)
}

// MarkPaid settles the account at the given date
func (a *Account) MarkPaid(paidDate time.Time, paymentMethod string) error {
	if a.PaidDate != nil {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Account %s is already paid", a.ID))
	}
	if paidDate.IsZero() {
		paidDate = time.Now()
	}

	a.PaidDate = &paidDate
	a.PaymentMethod = paymentMethod
	a.Status = AccountStatusPaid
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// IsPaid returns true if the account has been settled
func (a *Account) IsPaid() bool {
	return a.PaidDate != nil
}

// IsOverdue returns true if the account is unpaid and past its due date
func (a *Account) IsOverdue(now time.Time) bool {
	return a.EffectiveStatus(now) == AccountStatusOverdue
}

// HasLiveBoleto returns true if a non-cancelled boleto is attached
func (a *Account) HasLiveBoleto() bool {
	return a.Boleto != nil && a.Boleto.IsLive()
}

// AttachBoleto records an issued boleto on the account. At most one live
// boleto may be attached at a time; a cancelled one may be replaced.
func (a *Account) AttachBoleto(record *BoletoRecord) error {
	if record == nil {
		return shared.NewDomainError(shared.CodeValidation, "Boleto record cannot be nil")
	}
	if a.HasLiveBoleto() {
		return shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("Account %s already has a live boleto (%s)", a.ID, a.Boleto.ID))
	}

	a.Boleto = record
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// GetAmountMoney returns the account amount as Money
func (a *Account) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(a.Amount)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (a *Account) DaysOverdue(now time.Time) int {
	if !a.IsOverdue(now) {
		return 0
	}
	return int(dayStart(now).Sub(dayStart(a.DueDate)).Hours() / 24)
}

// dayStart truncates a timestamp to the start of its UTC day. The overdue
// rule compares calendar days, not instants.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
