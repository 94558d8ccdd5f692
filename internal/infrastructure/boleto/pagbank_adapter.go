package boleto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/izakgestao/backend/internal/domain/ledger"
)

const defaultPagbankTimeout = 30 * time.Second

// PagBankConfig holds the credentials and endpoint for the PagBank charges API
type PagBankConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Validate checks the configuration is usable
func (c *PagBankConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("pagbank: token is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("pagbank: base URL is required")
	}
	return nil
}

// PagBankAdapter implements ledger.BoletoGateway against the PagBank
// charges API. Boletos are charges with payment method type BOLETO.
type PagBankAdapter struct {
	config     *PagBankConfig
	httpClient *http.Client
}

// NewPagBankAdapter creates a new PagBank adapter
func NewPagBankAdapter(config *PagBankConfig) (*PagBankAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultPagbankTimeout
	}

	return &PagBankAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ProviderType returns the provider type
func (a *PagBankAdapter) ProviderType() ledger.ProviderType {
	return ledger.ProviderTypePagBank
}

// Issue creates a boleto charge with PagBank
func (a *PagBankAdapter) Issue(ctx context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	instructions := req.Instructions
	if instructions == "" {
		instructions = "Nao receber apos o vencimento"
	}

	payload := pagbankChargeRequest{
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Amount: pagbankAmount{
			Value:    req.Amount.MinorUnits(),
			Currency: "BRL",
		},
		PaymentMethod: pagbankPaymentMethod{
			Type: "BOLETO",
			Boleto: &pagbankBoleto{
				DueDate: req.DueDate.Format(pagbankDateLayout),
				InstructionLines: pagbankInstructionLines{
					Line1: instructions,
				},
				Holder: pagbankHolder{
					Name:  req.Payer.Name,
					TaxID: ledger.DigitsOnly(req.Payer.TaxID),
					Email: req.Payer.Email,
					Address: pagbankAddress{
						Street:     req.Payer.Address.Street,
						Number:     req.Payer.Address.Number,
						Complement: req.Payer.Address.Complement,
						Locality:   req.Payer.Address.Locality,
						City:       req.Payer.Address.City,
						RegionCode: req.Payer.Address.Region,
						Country:    "BRA",
						PostalCode: ledger.DigitsOnly(req.Payer.Address.PostalCode),
					},
				},
			},
		},
	}

	charge, err := a.doRequest(ctx, http.MethodPost, "/charges", payload, "issue")
	if err != nil {
		return nil, err
	}

	return &ledger.IssueBoletoResponse{
		ID:            charge.ID,
		Provider:      ledger.ProviderTypePagBank,
		Status:        mapPagbankStatus(charge.Status),
		Barcode:       chargeBarcode(charge),
		DigitableLine: chargeDigitableLine(charge),
		PDFURL:        charge.pdfURL(),
		DueDate:       req.DueDate,
	}, nil
}

// Query fetches the current state of a charge
func (a *PagBankAdapter) Query(ctx context.Context, boletoID string) (*ledger.QueryBoletoResponse, error) {
	if boletoID == "" {
		return nil, fmt.Errorf("pagbank: boleto id is required")
	}

	charge, err := a.doRequest(ctx, http.MethodGet, "/charges/"+boletoID, nil, "query")
	if err != nil {
		return nil, err
	}

	dueDate := time.Time{}
	if charge.PaymentMethod.Boleto != nil && charge.PaymentMethod.Boleto.DueDate != "" {
		if t, perr := time.Parse(pagbankDateLayout, charge.PaymentMethod.Boleto.DueDate); perr == nil {
			dueDate = t
		}
	}

	return &ledger.QueryBoletoResponse{
		ID:            charge.ID,
		Status:        mapPagbankStatus(charge.Status),
		Barcode:       chargeBarcode(charge),
		DigitableLine: chargeDigitableLine(charge),
		PDFURL:        charge.pdfURL(),
		DueDate:       dueDate,
		PaidAt:        charge.paidAtTime(),
	}, nil
}

// Cancel voids an unpaid charge
func (a *PagBankAdapter) Cancel(ctx context.Context, boletoID string) (*ledger.CancelBoletoResponse, error) {
	if boletoID == "" {
		return nil, fmt.Errorf("pagbank: boleto id is required")
	}

	// PagBank requires the amount on cancel; fetch it from the charge
	charge, err := a.doRequest(ctx, http.MethodGet, "/charges/"+boletoID, nil, "cancel")
	if err != nil {
		return nil, err
	}

	payload := pagbankCancelRequest{Amount: charge.Amount}
	canceled, err := a.doRequest(ctx, http.MethodPost, "/charges/"+boletoID+"/cancel", payload, "cancel")
	if err != nil {
		return nil, err
	}

	return &ledger.CancelBoletoResponse{
		ID:         canceled.ID,
		Status:     mapPagbankStatus(canceled.Status),
		CanceledAt: time.Now(),
	}, nil
}

// doRequest performs an authenticated HTTP call and decodes the charge
func (a *PagBankAdapter) doRequest(ctx context.Context, method, path string, payload any, operation string) (*pagbankChargeResponse, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("pagbank: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.config.BaseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("pagbank: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, ledger.NewGatewayError(ledger.ProviderTypePagBank, operation, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ledger.NewGatewayError(ledger.ProviderTypePagBank, operation, resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ledger.NewGatewayError(ledger.ProviderTypePagBank, operation, resp.StatusCode, errorDetail(respBody), nil)
	}

	var charge pagbankChargeResponse
	if err := json.Unmarshal(respBody, &charge); err != nil {
		return nil, fmt.Errorf("pagbank: failed to parse response: %w", err)
	}
	return &charge, nil
}

// errorDetail extracts a readable message from an error response body,
// falling back to the raw body
func errorDetail(body []byte) string {
	var parsed pagbankErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.ErrorMessages) > 0 {
		parts := make([]string, 0, len(parsed.ErrorMessages))
		for _, m := range parsed.ErrorMessages {
			parts = append(parts, fmt.Sprintf("%s: %s", m.Code, m.Description))
		}
		return strings.Join(parts, "; ")
	}
	return string(body)
}

func chargeBarcode(charge *pagbankChargeResponse) string {
	if charge.PaymentMethod.Boleto == nil {
		return ""
	}
	return charge.PaymentMethod.Boleto.Barcode
}

func chargeDigitableLine(charge *pagbankChargeResponse) string {
	if charge.PaymentMethod.Boleto == nil {
		return ""
	}
	return charge.PaymentMethod.Boleto.FormattedBarcode
}

// Ensure PagBankAdapter implements BoletoGateway
var _ ledger.BoletoGateway = (*PagBankAdapter)(nil)
