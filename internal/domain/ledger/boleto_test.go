package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoletoRecordTransitions(t *testing.T) {
	due := time.Now().Add(5 * 24 * time.Hour)

	t.Run("issued to paid", func(t *testing.T) {
		rec, err := NewBoletoRecord("ABC123", ProviderTypeMock, due)
		require.NoError(t, err)
		assert.True(t, rec.IsLive())

		paidAt := time.Now()
		require.NoError(t, rec.MarkPaid(paidAt))
		assert.Equal(t, BoletoStatusPaid, rec.Status)
		assert.False(t, rec.IsLive())

		// Replayed confirmation is a no-op
		require.NoError(t, rec.MarkPaid(time.Now()))
		require.NotNil(t, rec.PaidAt)
		assert.True(t, rec.PaidAt.Equal(paidAt))
	})

	t.Run("issued to canceled", func(t *testing.T) {
		rec, err := NewBoletoRecord("ABC124", ProviderTypeMock, due)
		require.NoError(t, err)
		require.NoError(t, rec.Cancel())
		assert.Equal(t, BoletoStatusCanceled, rec.Status)
		require.NotNil(t, rec.CanceledAt)

		// Cancel is idempotent
		require.NoError(t, rec.Cancel())
	})

	t.Run("paid cannot be canceled", func(t *testing.T) {
		rec, err := NewBoletoRecord("ABC125", ProviderTypePagBank, due)
		require.NoError(t, err)
		require.NoError(t, rec.MarkPaid(time.Now()))

		err = rec.Cancel()
		assert.Error(t, err)
		assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))
	})

	t.Run("canceled cannot be paid", func(t *testing.T) {
		rec, err := NewBoletoRecord("ABC126", ProviderTypeMock, due)
		require.NoError(t, err)
		require.NoError(t, rec.Cancel())

		err = rec.MarkPaid(time.Now())
		assert.Error(t, err)
		assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := NewBoletoRecord("", ProviderTypeMock, due)
		assert.Error(t, err)
		_, err = NewBoletoRecord("X", ProviderType("STRIPE"), due)
		assert.Error(t, err)
	})
}

func TestBoletoRecordMerge(t *testing.T) {
	due := time.Now().Add(3 * 24 * time.Hour)
	rec, err := NewBoletoRecord("MERGE1", ProviderTypePagBank, due)
	require.NoError(t, err)
	rec.PDFURL = "https://local/pdf"

	paidAt := time.Now()
	rec.Merge(&BoletoRecord{
		Status:        BoletoStatusPaid,
		Barcode:       "34191790010104351004791020150008291070026000",
		DigitableLine: "34191.79001 01043.510047 91020.150008 2 91070026000",
		PaidAt:        &paidAt,
	})

	assert.Equal(t, BoletoStatusPaid, rec.Status)
	assert.NotEmpty(t, rec.Barcode)
	require.NotNil(t, rec.PaidAt)
	// Fields the provider did not report are kept
	assert.Equal(t, "https://local/pdf", rec.PDFURL)
	assert.Equal(t, ProviderTypePagBank, rec.Provider)
}

func TestIssueBoletoRequestValidate(t *testing.T) {
	valid := func() *IssueBoletoRequest {
		amount, _ := valueobject.NewMoneyBRLFromString("150.00")
		return &IssueBoletoRequest{
			ReferenceID: "acc-1",
			Amount:      amount,
			DueDate:     time.Now().Add(7 * 24 * time.Hour),
			Description: "Fachada loja",
			Payer: Payer{
				Name:  "Cliente X",
				TaxID: "123.456.789-01",
			},
		}
	}

	t.Run("valid cpf", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("valid cnpj", func(t *testing.T) {
		req := valid()
		req.Payer.TaxID = "12.345.678/0001-90"
		assert.NoError(t, req.Validate())
	})

	t.Run("zero amount", func(t *testing.T) {
		req := valid()
		req.Amount = valueobject.ZeroBRL()
		assert.Error(t, req.Validate())
	})

	t.Run("missing due date", func(t *testing.T) {
		req := valid()
		req.DueDate = time.Time{}
		assert.Error(t, req.Validate())
	})

	t.Run("missing payer name", func(t *testing.T) {
		req := valid()
		req.Payer.Name = ""
		assert.Error(t, req.Validate())
	})

	t.Run("bad tax id length", func(t *testing.T) {
		req := valid()
		req.Payer.TaxID = "12345"
		err := req.Validate()
		assert.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}

func TestGatewayError(t *testing.T) {
	err := NewGatewayError(ProviderTypePagBank, "issue", 401, `{"error":"unauthorized"}`, nil)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "issue")

	wrapped := NewGatewayError(ProviderTypePagBank, "query", 0, "", context.DeadlineExceeded)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}
