package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PayerAddressDefaults fills address fields the caller left blank before an
// issue request reaches a remote provider, which rejects empty addresses.
type PayerAddressDefaults struct {
	Street     string
	Number     string
	Locality   string
	City       string
	Region     string
	PostalCode string
}

// BoletoService issues, queries and cancels boletos through a provider
// gateway, keeping the local cache and the owning account in sync.
type BoletoService struct {
	accountRepo     ledger.AccountRepository
	boletoRepo      ledger.BoletoRepository
	gateways        map[ledger.ProviderType]ledger.BoletoGateway
	defaultProvider ledger.ProviderType
	addressDefaults PayerAddressDefaults
	reconciliation  *ReconciliationService
	logger          *zap.Logger
}

// BoletoServiceConfig holds the service dependencies
type BoletoServiceConfig struct {
	AccountRepo     ledger.AccountRepository
	BoletoRepo      ledger.BoletoRepository
	Gateways        []ledger.BoletoGateway
	DefaultProvider ledger.ProviderType
	AddressDefaults PayerAddressDefaults
	Reconciliation  *ReconciliationService
	Logger          *zap.Logger
}

// NewBoletoService creates a new BoletoService
func NewBoletoService(config BoletoServiceConfig) *BoletoService {
	gateways := make(map[ledger.ProviderType]ledger.BoletoGateway)
	for _, gw := range config.Gateways {
		gateways[gw.ProviderType()] = gw
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defaultProvider := config.DefaultProvider
	if !defaultProvider.IsValid() {
		defaultProvider = ledger.ProviderTypeMock
	}

	return &BoletoService{
		accountRepo:     config.AccountRepo,
		boletoRepo:      config.BoletoRepo,
		gateways:        gateways,
		defaultProvider: defaultProvider,
		addressDefaults: config.AddressDefaults,
		reconciliation:  config.Reconciliation,
		logger:          logger,
	}
}

func (s *BoletoService) gateway(provider ledger.ProviderType) (ledger.BoletoGateway, error) {
	if provider == "" {
		provider = s.defaultProvider
	}
	gw, ok := s.gateways[provider]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeValidation,
			"Boleto provider "+provider.String()+" is not configured")
	}
	return gw, nil
}

// Issue creates a boleto for a receivable account and attaches it
func (s *BoletoService) Issue(ctx context.Context, accountID uuid.UUID, req IssueBoletoAPIRequest) (*BoletoResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Kind != ledger.AccountKindReceivable {
		return nil, shared.NewDomainError(shared.CodeValidation, "Boletos can only be issued for receivable accounts")
	}
	if account.IsPaid() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Account is already settled")
	}
	if account.HasLiveBoleto() {
		return nil, shared.NewDomainError(shared.CodeConflict, "Account already has a live boleto")
	}

	gw, err := s.gateway(ledger.ProviderType(req.Provider))
	if err != nil {
		return nil, err
	}

	issueReq := &ledger.IssueBoletoRequest{
		ReferenceID: account.ID.String(),
		Amount:      account.GetAmountMoney(),
		DueDate:     account.DueDate,
		Description: account.Description,
		Payer: ledger.Payer{
			Name:  req.PayerName,
			TaxID: req.PayerTaxID,
			Email: req.PayerEmail,
			Phone: req.PayerPhone,
			Address: ledger.PayerAddress{
				Street:     orDefault(req.Street, s.addressDefaults.Street),
				Number:     orDefault(req.Number, s.addressDefaults.Number),
				Complement: req.Complement,
				Locality:   orDefault(req.Locality, s.addressDefaults.Locality),
				City:       orDefault(req.City, s.addressDefaults.City),
				Region:     orDefault(req.Region, s.addressDefaults.Region),
				PostalCode: orDefault(req.PostalCode, s.addressDefaults.PostalCode),
			},
		},
		Instructions: req.Instructions,
	}
	if err := issueReq.Validate(); err != nil {
		return nil, err
	}

	issued, err := gw.Issue(ctx, issueReq)
	if err != nil {
		s.logger.Error("Boleto issue failed",
			zap.String("account_id", account.ID.String()),
			zap.String("provider", gw.ProviderType().String()),
			zap.Error(err))
		return nil, err
	}

	record, err := ledger.NewBoletoRecord(issued.ID, gw.ProviderType(), issued.DueDate)
	if err != nil {
		return nil, err
	}
	record.Barcode = issued.Barcode
	record.DigitableLine = issued.DigitableLine
	record.PDFURL = issued.PDFURL
	record.AccountID = &account.ID

	if err := account.AttachBoleto(record); err != nil {
		return nil, err
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	if err := s.boletoRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Boleto issued",
		zap.String("boleto_id", record.ID),
		zap.String("account_id", account.ID.String()),
		zap.String("provider", record.Provider.String()))

	return ToBoletoResponse(record), nil
}

// Query returns the boleto state, refreshing the cache from the provider.
// Provider fields win over cached ones; when the provider is unreachable the
// cached record is returned as-is so lookups keep working offline.
func (s *BoletoService) Query(ctx context.Context, boletoID string) (*BoletoResponse, error) {
	record, err := s.boletoRepo.FindByID(ctx, boletoID)
	if err != nil {
		return nil, err
	}

	gw, err := s.gateway(record.Provider)
	if err != nil {
		return nil, err
	}

	remote, err := gw.Query(ctx, boletoID)
	if err != nil {
		s.logger.Warn("Boleto provider query failed, serving cached record",
			zap.String("boleto_id", boletoID),
			zap.Error(err))
		return ToBoletoResponse(record), nil
	}

	wasLive := record.IsLive()
	record.Merge(remote.ToRecord())
	if err := s.boletoRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	if err := s.syncAccount(ctx, record); err != nil {
		return nil, err
	}

	// A boleto that became paid while we weren't looking settles its account
	if wasLive && record.Status == ledger.BoletoStatusPaid && record.AccountID != nil {
		if _, err := s.reconciliation.MarkPaid(ctx, *record.AccountID, MarkPaidRequest{
			PaidDate:      record.PaidAt,
			PaymentMethod: "boleto",
		}); err != nil {
			return nil, err
		}
	}

	return ToBoletoResponse(record), nil
}

// Cancel voids an unpaid boleto. The provider is consulted first: if the
// charge was paid in the meantime the cancel is refused and the payment is
// reconciled instead.
func (s *BoletoService) Cancel(ctx context.Context, boletoID string) (*BoletoResponse, error) {
	record, err := s.boletoRepo.FindByID(ctx, boletoID)
	if err != nil {
		return nil, err
	}

	if record.Status == ledger.BoletoStatusPaid {
		return nil, shared.NewDomainError(shared.CodeConflict, "Paid boletos cannot be canceled")
	}
	if record.Status == ledger.BoletoStatusCanceled {
		return ToBoletoResponse(record), nil
	}

	gw, err := s.gateway(record.Provider)
	if err != nil {
		return nil, err
	}

	if remote, err := gw.Query(ctx, boletoID); err == nil && remote.Status == ledger.BoletoStatusPaid {
		record.Merge(remote.ToRecord())
		if err := s.boletoRepo.Save(ctx, record); err != nil {
			return nil, err
		}
		if err := s.syncAccount(ctx, record); err != nil {
			return nil, err
		}
		if record.AccountID != nil {
			if _, err := s.reconciliation.MarkPaid(ctx, *record.AccountID, MarkPaidRequest{
				PaidDate:      record.PaidAt,
				PaymentMethod: "boleto",
			}); err != nil {
				return nil, err
			}
		}
		return nil, shared.NewDomainError(shared.CodeConflict, "Boleto was paid and cannot be canceled")
	}

	if _, err := gw.Cancel(ctx, boletoID); err != nil {
		s.logger.Error("Boleto cancel failed",
			zap.String("boleto_id", boletoID),
			zap.Error(err))
		return nil, err
	}

	if err := record.Cancel(); err != nil {
		return nil, err
	}
	if err := s.boletoRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	if err := s.syncAccount(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Boleto canceled", zap.String("boleto_id", boletoID))

	return ToBoletoResponse(record), nil
}

// syncAccount mirrors the cached record back onto the owning account's
// embedded copy
func (s *BoletoService) syncAccount(ctx context.Context, record *ledger.BoletoRecord) error {
	if record.AccountID == nil {
		return nil
	}
	account, err := s.accountRepo.FindByID(ctx, *record.AccountID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return err
	}
	if account.Boleto == nil || account.Boleto.ID != record.ID {
		return nil
	}

	account.Boleto = record
	account.UpdatedAt = time.Now()
	return s.accountRepo.Save(ctx, account)
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
