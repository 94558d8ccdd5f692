package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoletoFixture(t *testing.T, gw *scriptedGateway) (*fixture, *BoletoService) {
	t.Helper()
	f := newFixture(t)
	svc := NewBoletoService(BoletoServiceConfig{
		AccountRepo:     f.accounts,
		BoletoRepo:      f.boletos,
		Gateways:        []ledger.BoletoGateway{gw},
		DefaultProvider: gw.provider,
		AddressDefaults: PayerAddressDefaults{
			Street:     "Rua das Placas",
			Number:     "100",
			Locality:   "Centro",
			City:       "Fortaleza",
			Region:     "CE",
			PostalCode: "60000000",
		},
		Reconciliation: f.recon,
	})
	return f, svc
}

func issueRequest() IssueBoletoAPIRequest {
	return IssueBoletoAPIRequest{
		PayerName:  "Cliente X",
		PayerTaxID: "123.456.789-01",
	}
}

func TestBoletoIssue(t *testing.T) {
	gw := &scriptedGateway{provider: ledger.ProviderTypeMock}
	gw.issueFn = func(_ context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
		// Defaults must have been applied before the request reaches the provider
		if req.Payer.Address.City == "" || req.Payer.Address.PostalCode == "" {
			return nil, ledger.NewGatewayError(ledger.ProviderTypeMock, "issue", 400, "missing address", nil)
		}
		return &ledger.IssueBoletoResponse{
			ID:            "CHG-1",
			Provider:      ledger.ProviderTypeMock,
			Status:        ledger.BoletoStatusIssued,
			Barcode:       "0339373700000150000000000000000000000000000",
			DigitableLine: "03399.37370 00000.150000 00000.000000 0 00000000000000",
			PDFURL:        "https://boletos.local/CHG-1.pdf",
			DueDate:       req.DueDate,
		}, nil
	}

	f, svc := newBoletoFixture(t, gw)
	ctx := context.Background()
	account := f.seedAccount(t, ledger.AccountKindReceivable, "150.00")

	resp, err := svc.Issue(ctx, account.ID, issueRequest())
	require.NoError(t, err)
	assert.Equal(t, "CHG-1", resp.ID)
	assert.Equal(t, "ISSUED", resp.Status)
	assert.Equal(t, 1, gw.issueHits)

	// The record is attached to the account and cached
	stored, err := f.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Boleto)
	assert.Equal(t, "CHG-1", stored.Boleto.ID)

	cached, err := f.boletos.FindByID(ctx, "CHG-1")
	require.NoError(t, err)
	require.NotNil(t, cached.AccountID)
	assert.Equal(t, account.ID, *cached.AccountID)

	t.Run("second live boleto is a conflict", func(t *testing.T) {
		_, err := svc.Issue(ctx, account.ID, issueRequest())
		assert.Error(t, err)
		assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))
		assert.Equal(t, 1, gw.issueHits, "provider must not be called on conflict")
	})
}

func TestBoletoIssueRejections(t *testing.T) {
	gw := &scriptedGateway{provider: ledger.ProviderTypeMock}
	gw.issueFn = func(_ context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
		return &ledger.IssueBoletoResponse{ID: "X", Provider: ledger.ProviderTypeMock, Status: ledger.BoletoStatusIssued, DueDate: req.DueDate}, nil
	}
	f, svc := newBoletoFixture(t, gw)
	ctx := context.Background()

	t.Run("payable account", func(t *testing.T) {
		account := f.seedAccount(t, ledger.AccountKindPayable, "50.00")
		_, err := svc.Issue(ctx, account.ID, issueRequest())
		assert.Error(t, err)
	})

	t.Run("settled account", func(t *testing.T) {
		account := f.seedAccount(t, ledger.AccountKindReceivable, "50.00")
		_, err := f.recon.MarkPaid(ctx, account.ID, MarkPaidRequest{})
		require.NoError(t, err)
		_, err = svc.Issue(ctx, account.ID, issueRequest())
		assert.Error(t, err)
		assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
	})

	t.Run("bad tax id", func(t *testing.T) {
		account := f.seedAccount(t, ledger.AccountKindReceivable, "50.00")
		req := issueRequest()
		req.PayerTaxID = "123"
		_, err := svc.Issue(ctx, account.ID, req)
		assert.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		assert.Equal(t, 0, gw.issueHits)
	})
}

func TestBoletoQueryMergesProviderState(t *testing.T) {
	paidAt := time.Now()
	gw := &scriptedGateway{provider: ledger.ProviderTypeMock}
	gw.issueFn = func(_ context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
		return &ledger.IssueBoletoResponse{ID: "Q-1", Provider: ledger.ProviderTypeMock, Status: ledger.BoletoStatusIssued, PDFURL: "https://boletos.local/Q-1.pdf", DueDate: req.DueDate}, nil
	}
	gw.queryFn = func(_ context.Context, boletoID string) (*ledger.QueryBoletoResponse, error) {
		return &ledger.QueryBoletoResponse{
			ID:      boletoID,
			Status:  ledger.BoletoStatusPaid,
			Barcode: "0339373700000150000000000000000000000000000",
			PaidAt:  &paidAt,
		}, nil
	}

	f, svc := newBoletoFixture(t, gw)
	ctx := context.Background()
	f.openTill(t, "0.00")
	account := f.seedAccount(t, ledger.AccountKindReceivable, "150.00")
	_, err := svc.Issue(ctx, account.ID, issueRequest())
	require.NoError(t, err)

	resp, err := svc.Query(ctx, "Q-1")
	require.NoError(t, err)
	assert.Equal(t, "PAID", resp.Status)
	assert.NotEmpty(t, resp.Barcode)
	// Provider did not report a pdf url; the cached one survives the merge
	assert.Equal(t, "https://boletos.local/Q-1.pdf", resp.PDFURL)

	// Discovering the payment settles the account and posts the movement
	stored, err := f.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
	posted, err := f.sessions.HasMovementForAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, posted)
}

func TestBoletoQueryFallsBackToCache(t *testing.T) {
	gw := &scriptedGateway{provider: ledger.ProviderTypeMock}
	gw.issueFn = func(_ context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
		return &ledger.IssueBoletoResponse{ID: "Q-2", Provider: ledger.ProviderTypeMock, Status: ledger.BoletoStatusIssued, DueDate: req.DueDate}, nil
	}
	// queryFn nil: the scripted gateway fails every query

	f, svc := newBoletoFixture(t, gw)
	ctx := context.Background()
	account := f.seedAccount(t, ledger.AccountKindReceivable, "80.00")
	_, err := svc.Issue(ctx, account.ID, issueRequest())
	require.NoError(t, err)

	resp, err := svc.Query(ctx, "Q-2")
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", resp.Status)
}

func TestBoletoCancel(t *testing.T) {
	gw := &scriptedGateway{provider: ledger.ProviderTypeMock}
	gw.issueFn = func(_ context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
		return &ledger.IssueBoletoResponse{ID: "C-1", Provider: ledger.ProviderTypeMock, Status: ledger.BoletoStatusIssued, DueDate: req.DueDate}, nil
	}
	gw.queryFn = func(_ context.Context, boletoID string) (*ledger.QueryBoletoResponse, error) {
		return &ledger.QueryBoletoResponse{ID: boletoID, Status: ledger.BoletoStatusIssued}, nil
	}

	f, svc := newBoletoFixture(t, gw)
	ctx := context.Background()
	account := f.seedAccount(t, ledger.AccountKindReceivable, "80.00")
	_, err := svc.Issue(ctx, account.ID, issueRequest())
	require.NoError(t, err)

	resp, err := svc.Cancel(ctx, "C-1")
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.Status)

	// Cancel is idempotent
	resp, err = svc.Cancel(ctx, "C-1")
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.Status)

	// The account's embedded copy is synced, freeing the boleto slot
	stored, err := f.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasLiveBoleto())
}

func TestBoletoCancelRefusedWhenProviderReportsPaid(t *testing.T) {
	paidAt := time.Now()
	gw := &scriptedGateway{provider: ledger.ProviderTypeMock}
	gw.issueFn = func(_ context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
		return &ledger.IssueBoletoResponse{ID: "C-2", Provider: ledger.ProviderTypeMock, Status: ledger.BoletoStatusIssued, DueDate: req.DueDate}, nil
	}
	gw.queryFn = func(_ context.Context, boletoID string) (*ledger.QueryBoletoResponse, error) {
		return &ledger.QueryBoletoResponse{ID: boletoID, Status: ledger.BoletoStatusPaid, PaidAt: &paidAt}, nil
	}

	f, svc := newBoletoFixture(t, gw)
	ctx := context.Background()
	f.openTill(t, "0.00")
	account := f.seedAccount(t, ledger.AccountKindReceivable, "80.00")
	_, err := svc.Issue(ctx, account.ID, issueRequest())
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "C-2")
	assert.Error(t, err)
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))

	// The race resolution settles the account instead
	stored, err := f.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
}
