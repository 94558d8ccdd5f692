package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSession(t *testing.T, opening string) *ledger.TillSession {
	t.Helper()
	session, err := ledger.NewTillSession(decimal.RequireFromString(opening), "maria")
	require.NoError(t, err)
	return session
}

func appendMovement(t *testing.T, session *ledger.TillSession, movType ledger.MovementType, amount, description string, accountID *uuid.UUID) {
	t.Helper()
	mov, err := ledger.NewMovement(session.ID, movType, decimal.RequireFromString(amount), description)
	require.NoError(t, err)
	mov.AccountID = accountID
	require.NoError(t, session.Append(mov))
}

func TestTillSessionRepositorySaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTillSessionRepository(db)
	ctx := context.Background()

	session := openSession(t, "100.00")
	appendMovement(t, session, ledger.MovementTypeEntrada, "250.00", "Recebimento: Placa em ACM", nil)
	appendMovement(t, session, ledger.MovementTypeSaida, "40.00", "Compra de fita dupla face", nil)
	session.Movements[1].Category = "insumos"
	session.Movements[1].PaymentMethod = "dinheiro"
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TillSessionStatusOpen, found.Status)
	assert.Equal(t, "maria", found.OpenedBy)
	require.Len(t, found.Movements, 2)
	assert.Equal(t, ledger.MovementTypeEntrada, found.Movements[0].Type)
	assert.Equal(t, "insumos", found.Movements[1].Category)
	assert.Equal(t, "dinheiro", found.Movements[1].PaymentMethod)
	assert.True(t, found.ClosingBalance.Equal(decimal.RequireFromString("310.00")))

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTillSessionRepositoryFindOpen(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTillSessionRepository(db)
	ctx := context.Background()

	_, err := repo.FindOpen(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	closed := openSession(t, "50.00")
	require.NoError(t, closed.Close(decimal.RequireFromString("50.00"), ""))
	require.NoError(t, repo.Save(ctx, closed))

	open := openSession(t, "80.00")
	require.NoError(t, repo.Save(ctx, open))

	found, err := repo.FindOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, open.ID, found.ID)
}

func TestTillSessionRepositoryCloseRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTillSessionRepository(db)
	ctx := context.Background()

	session := openSession(t, "100.00")
	appendMovement(t, session, ledger.MovementTypeEntrada, "200.00", "Recebimento: Banner 3x1", nil)
	require.NoError(t, repo.Save(ctx, session))

	require.NoError(t, session.Close(decimal.RequireFromString("280.00"), "faltou troco"))
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TillSessionStatusClosed, found.Status)
	require.NotNil(t, found.ClosedAt)
	require.NotNil(t, found.Discrepancy)
	assert.True(t, found.Discrepancy.Equal(decimal.RequireFromString("-20.00")))
	assert.Equal(t, "faltou troco", found.Notes)
}

// A settlement movement for the same account must be stored at most once,
// even across different sessions. The database index is the last line of
// defense when two processes race past the in-memory checks.
func TestTillSessionRepositoryMovementUniquePerAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTillSessionRepository(db)
	ctx := context.Background()

	accountID := uuid.New()

	first := openSession(t, "0.00")
	appendMovement(t, first, ledger.MovementTypeEntrada, "150.00", "Recebimento: Letra caixa", &accountID)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, first.Close(decimal.RequireFromString("150.00"), ""))
	require.NoError(t, repo.Save(ctx, first))

	second := openSession(t, "0.00")
	appendMovement(t, second, ledger.MovementTypeEntrada, "150.00", "Recebimento: Letra caixa", &accountID)

	err := repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	has, err := repo.HasMovementForAccount(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("manual movements are not constrained", func(t *testing.T) {
		session := openSession(t, "0.00")
		appendMovement(t, session, ledger.MovementTypeSaida, "10.00", "Cafe", nil)
		appendMovement(t, session, ledger.MovementTypeSaida, "12.00", "Almoco", nil)
		require.NoError(t, repo.Save(ctx, session))
	})
}

// Re-saving a session must not duplicate movements already stored.
func TestTillSessionRepositorySaveIsIdempotentForMovements(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTillSessionRepository(db)
	ctx := context.Background()

	session := openSession(t, "20.00")
	appendMovement(t, session, ledger.MovementTypeEntrada, "30.00", "Venda avulsa", nil)
	require.NoError(t, repo.Save(ctx, session))
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, found.Movements, 1)
	assert.True(t, found.ClosingBalance.Equal(decimal.RequireFromString("50.00")))
}

func TestTillSessionRepositoryFindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormTillSessionRepository(db)
	ctx := context.Background()

	first := openSession(t, "10.00")
	require.NoError(t, first.Close(decimal.RequireFromString("10.00"), ""))
	require.NoError(t, repo.Save(ctx, first))

	second := openSession(t, "20.00")
	require.NoError(t, repo.Save(ctx, second))

	sessions, err := repo.FindAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	limited, err := repo.FindAll(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
