package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoletoRepositorySaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBoletoRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	record, err := ledger.NewBoletoRecord("CHG-77AF01", ledger.ProviderTypePagBank, time.Now().Add(5*24*time.Hour))
	require.NoError(t, err)
	record.Barcode = "03399373700000150000000001500000000000000000"
	record.DigitableLine = "03399.37370 00000.150000 00000.000000 0 00000000000000"
	record.PDFURL = "https://boleto.sandbox.pagseguro.com/CHG-77AF01.pdf"
	record.AccountID = &accountID
	require.NoError(t, repo.Save(ctx, record))

	found, err := repo.FindByID(ctx, "CHG-77AF01")
	require.NoError(t, err)
	assert.Equal(t, ledger.ProviderTypePagBank, found.Provider)
	assert.Equal(t, ledger.BoletoStatusIssued, found.Status)
	assert.Equal(t, record.DigitableLine, found.DigitableLine)
	require.NotNil(t, found.AccountID)
	assert.Equal(t, accountID, *found.AccountID)

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "CHG-MISSING")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("upsert updates status", func(t *testing.T) {
		require.NoError(t, found.MarkPaid(time.Now()))
		require.NoError(t, repo.Save(ctx, found))

		again, err := repo.FindByID(ctx, "CHG-77AF01")
		require.NoError(t, err)
		assert.Equal(t, ledger.BoletoStatusPaid, again.Status)
		assert.NotNil(t, again.PaidAt)
	})
}

func TestBoletoRepositoryFindByAccountID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBoletoRepository(db)
	ctx := context.Background()

	accountID := uuid.New()

	old, err := ledger.NewBoletoRecord("CHG-OLD", ledger.ProviderTypeMock, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	old.AccountID = &accountID
	old.IssuedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, old.Cancel())
	require.NoError(t, repo.Save(ctx, old))

	current, err := ledger.NewBoletoRecord("CHG-NEW", ledger.ProviderTypeMock, time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	current.AccountID = &accountID
	require.NoError(t, repo.Save(ctx, current))

	found, err := repo.FindByAccountID(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "CHG-NEW", found.ID)

	_, err = repo.FindByAccountID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
