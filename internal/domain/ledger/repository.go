package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountFilter narrows account listings. Zero values mean "no constraint".
type AccountFilter struct {
	Kind         AccountKind
	Status       AccountStatus
	Category     string
	Counterparty string
	DueAfter     *time.Time
	DueBefore    *time.Time
	Limit        int
	Offset       int
}

// AccountRepository persists ledger accounts
type AccountRepository interface {
	// Save inserts or updates an account together with its embedded boleto
	Save(ctx context.Context, account *Account) error

	// FindByID retrieves an account by id, shared.ErrNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindAll lists accounts matching the filter, ordered by due date ascending
	FindAll(ctx context.Context, filter AccountFilter) ([]*Account, error)

	// Count returns how many accounts match the filter, ignoring paging
	Count(ctx context.Context, filter AccountFilter) (int64, error)

	// FindByBoletoID locates the account owning the given boleto
	FindByBoletoID(ctx context.Context, boletoID string) (*Account, error)

	// FindUnpaid lists accounts with no paid date, for overdue sweeps
	FindUnpaid(ctx context.Context) ([]*Account, error)

	// Delete removes an account
	Delete(ctx context.Context, id uuid.UUID) error
}

// TillSessionRepository persists till sessions and their movement logs.
// Save writes the session row and any movements not yet stored in a single
// transaction; a settlement movement whose account already has one stored
// fails with shared.ErrAlreadyExists, enforced by a database constraint.
type TillSessionRepository interface {
	Save(ctx context.Context, session *TillSession) error

	// FindByID retrieves a session with its movements, shared.ErrNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*TillSession, error)

	// FindOpen returns the currently open session, shared.ErrNotFound if none
	FindOpen(ctx context.Context) (*TillSession, error)

	// FindAll lists sessions newest first
	FindAll(ctx context.Context, limit, offset int) ([]*TillSession, error)

	// HasMovementForAccount reports whether any session, open or closed,
	// already holds a settlement movement for the account
	HasMovementForAccount(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// BoletoRepository is the local cache of issued boletos keyed by provider id
type BoletoRepository interface {
	// Save inserts or updates a cached record
	Save(ctx context.Context, record *BoletoRecord) error

	// FindByID retrieves a cached record, shared.ErrNotFound if absent
	FindByID(ctx context.Context, boletoID string) (*BoletoRecord, error)

	// FindByAccountID retrieves the live record attached to an account
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*BoletoRecord, error)
}
