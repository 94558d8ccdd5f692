package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// WebhookService applies provider payment notifications to the ledger.
// Processing is idempotent at two levels: the event id is checked against
// the idempotency store, and the boleto/account transitions themselves
// tolerate replays.
type WebhookService struct {
	boletoRepo     ledger.BoletoRepository
	reconciliation *ReconciliationService
	idempotency    shared.IdempotencyStore
	eventTTL       time.Duration
	logger         *zap.Logger
}

// WebhookServiceConfig holds the service dependencies
type WebhookServiceConfig struct {
	BoletoRepo     ledger.BoletoRepository
	Reconciliation *ReconciliationService
	Idempotency    shared.IdempotencyStore
	EventTTL       time.Duration
	Logger         *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(config WebhookServiceConfig) *WebhookService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	eventTTL := config.EventTTL
	if eventTTL <= 0 {
		eventTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &WebhookService{
		boletoRepo:     config.BoletoRepo,
		reconciliation: config.Reconciliation,
		idempotency:    config.Idempotency,
		eventTTL:       eventTTL,
		logger:         logger,
	}
}

// NormalizeStatus maps the provider's status vocabulary onto ours. Unknown
// statuses map to empty and are ignored by Handle.
func NormalizeStatus(raw string) ledger.BoletoStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PAID", "PAGO", "SETTLED":
		return ledger.BoletoStatusPaid
	case "CANCELED", "CANCELLED", "CANCELADO", "VOIDED":
		return ledger.BoletoStatusCanceled
	case "ISSUED", "WAITING", "PENDING", "AUTHORIZED", "IN_ANALYSIS":
		return ledger.BoletoStatusIssued
	}
	return ""
}

// Handle processes one provider webhook event
func (s *WebhookService) Handle(ctx context.Context, req WebhookRequest) (*WebhookResult, error) {
	if req.BoletoID == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Webhook is missing the boleto id")
	}

	eventID := req.EventID
	if eventID == "" {
		// Providers without event ids still get replay protection, keyed on
		// the transition itself
		eventID = req.BoletoID + ":" + strings.ToUpper(req.Status)
	}

	processed, err := s.idempotency.IsProcessed(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if processed {
		s.logger.Info("Webhook replay ignored",
			zap.String("event_id", eventID),
			zap.String("boleto_id", req.BoletoID))
		return &WebhookResult{Processed: false, Duplicate: true}, nil
	}

	record, err := s.boletoRepo.FindByID(ctx, req.BoletoID)
	if err != nil {
		s.logger.Warn("Webhook for unknown boleto",
			zap.String("boleto_id", req.BoletoID),
			zap.Error(err))
		return nil, err
	}

	var result *WebhookResult
	switch NormalizeStatus(req.Status) {
	case ledger.BoletoStatusPaid:
		result, err = s.handlePaid(ctx, record, req)
	case ledger.BoletoStatusCanceled:
		result, err = s.handleCanceled(ctx, record)
	default:
		s.logger.Info("Webhook with no actionable status",
			zap.String("boleto_id", req.BoletoID),
			zap.String("status", req.Status))
		result = &WebhookResult{Processed: false}
	}
	if err != nil {
		// Leave the event unmarked so the provider's retry can deliver it.
		return nil, err
	}

	// The event is recorded only once handled; the domain transitions
	// themselves tolerate the rare race where a concurrent retry slips past
	// the IsProcessed check.
	if _, err := s.idempotency.MarkProcessed(ctx, eventID, s.eventTTL); err != nil {
		s.logger.Warn("Failed to record webhook event id",
			zap.String("event_id", eventID),
			zap.Error(err))
	}

	return result, nil
}

func (s *WebhookService) handlePaid(ctx context.Context, record *ledger.BoletoRecord, req WebhookRequest) (*WebhookResult, error) {
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	if err := record.MarkPaid(paidAt); err != nil {
		return nil, err
	}
	if err := s.boletoRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	result := &WebhookResult{Processed: true}
	if record.AccountID != nil {
		settled, err := s.reconciliation.MarkPaid(ctx, *record.AccountID, MarkPaidRequest{
			PaidDate:      record.PaidAt,
			PaymentMethod: "boleto",
		})
		if err != nil {
			return nil, err
		}
		result.Account = settled.Account
		result.MovementPosted = settled.MovementPosted
	}

	s.logger.Info("Webhook settled boleto",
		zap.String("boleto_id", record.ID),
		zap.Bool("movement_posted", result.MovementPosted))

	return result, nil
}

func (s *WebhookService) handleCanceled(ctx context.Context, record *ledger.BoletoRecord) (*WebhookResult, error) {
	if err := record.Cancel(); err != nil {
		return nil, err
	}
	if err := s.boletoRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Webhook canceled boleto", zap.String("boleto_id", record.ID))

	return &WebhookResult{Processed: true}, nil
}
