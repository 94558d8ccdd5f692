package boleto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
)

// MockAdapter implements ledger.BoletoGateway entirely in memory. It is
// the default provider for development and for shops that only want the
// printable document, with no remote registration.
type MockAdapter struct {
	mu      sync.Mutex
	charges map[string]*mockCharge
}

type mockCharge struct {
	response ledger.QueryBoletoResponse
}

// NewMockAdapter creates a new in-memory boleto provider
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		charges: make(map[string]*mockCharge),
	}
}

// ProviderType returns the provider type
func (a *MockAdapter) ProviderType() ledger.ProviderType {
	return ledger.ProviderTypeMock
}

// Issue creates a fake boleto with plausible barcode and digitable line
func (a *MockAdapter) Issue(ctx context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := "MOCK-" + randomHex(8)
	barcode := randomDigits(44)
	resp := &ledger.IssueBoletoResponse{
		ID:            id,
		Provider:      ledger.ProviderTypeMock,
		Status:        ledger.BoletoStatusIssued,
		Barcode:       barcode,
		DigitableLine: formatDigitableLine(randomDigits(47)),
		PDFURL:        fmt.Sprintf("https://boletos.izakgestao.com.br/mock/%s.pdf", id),
		DueDate:       req.DueDate,
	}

	a.mu.Lock()
	a.charges[id] = &mockCharge{
		response: ledger.QueryBoletoResponse{
			ID:            resp.ID,
			Status:        resp.Status,
			Barcode:       resp.Barcode,
			DigitableLine: resp.DigitableLine,
			PDFURL:        resp.PDFURL,
			DueDate:       resp.DueDate,
		},
	}
	a.mu.Unlock()

	return resp, nil
}

// Query returns the stored state of a fake boleto
func (a *MockAdapter) Query(ctx context.Context, boletoID string) (*ledger.QueryBoletoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	charge, ok := a.charges[boletoID]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Boleto %s not found", boletoID))
	}
	resp := charge.response
	return &resp, nil
}

// Cancel voids a fake boleto
func (a *MockAdapter) Cancel(ctx context.Context, boletoID string) (*ledger.CancelBoletoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	charge, ok := a.charges[boletoID]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Boleto %s not found", boletoID))
	}
	if charge.response.Status == ledger.BoletoStatusPaid {
		return nil, shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("Boleto %s is already paid", boletoID))
	}

	charge.response.Status = ledger.BoletoStatusCanceled
	return &ledger.CancelBoletoResponse{
		ID:         boletoID,
		Status:     ledger.BoletoStatusCanceled,
		CanceledAt: time.Now(),
	}, nil
}

// SettlePayment marks a fake boleto as paid, for driving webhook flows in
// development and tests
func (a *MockAdapter) SettlePayment(boletoID string, paidAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	charge, ok := a.charges[boletoID]
	if !ok {
		return shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Boleto %s not found", boletoID))
	}
	if charge.response.Status == ledger.BoletoStatusCanceled {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Boleto %s is canceled", boletoID))
	}

	charge.response.Status = ledger.BoletoStatusPaid
	charge.response.PaidAt = &paidAt
	return nil
}

// randomHex returns n random bytes hex-encoded, uppercase
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// randomDigits returns a string of n random decimal digits
func randomDigits(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	digits := make([]byte, n)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits)
}

// formatDigitableLine groups 47 digits the way banks print the linha
// digitavel: 5.5 5.6 5.6 1 14
func formatDigitableLine(digits string) string {
	if len(digits) != 47 {
		return digits
	}
	return fmt.Sprintf("%s.%s %s.%s %s.%s %s %s",
		digits[0:5], digits[5:10],
		digits[10:15], digits[15:21],
		digits[21:26], digits[26:32],
		digits[32:33],
		digits[33:47])
}

// Ensure MockAdapter implements BoletoGateway
var _ ledger.BoletoGateway = (*MockAdapter)(nil)
