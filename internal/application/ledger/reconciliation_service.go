package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// WarnNoOpenSession is attached to a settlement that could not post its till
// movement because no session was open at the time.
const WarnNoOpenSession = "account settled but no till session is open; movement not posted"

// WarnMovementMissing is attached when an already-settled account still has
// no till movement on record, whatever kept it from being posted originally.
const WarnMovementMissing = "account already settled but its till movement was never posted"

// ReconciliationService settles accounts and keeps the till in sync: every
// settlement posts exactly one movement into the open session, entrada for
// receivables and saida for payables.
type ReconciliationService struct {
	accountRepo ledger.AccountRepository
	sessionRepo ledger.TillSessionRepository
	boletoRepo  ledger.BoletoRepository
	tillSvc     *TillService
	logger      *zap.Logger
}

// ReconciliationServiceConfig holds the service dependencies
type ReconciliationServiceConfig struct {
	AccountRepo ledger.AccountRepository
	SessionRepo ledger.TillSessionRepository
	BoletoRepo  ledger.BoletoRepository // Optional, keeps the boleto cache in sync on manual settlements
	TillService *TillService
	Logger      *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(config ReconciliationServiceConfig) *ReconciliationService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		accountRepo: config.AccountRepo,
		sessionRepo: config.SessionRepo,
		boletoRepo:  config.BoletoRepo,
		tillSvc:     config.TillService,
		logger:      logger,
	}
}

// MarkPaid settles an account and posts the matching till movement.
// Settlement is idempotent: settling an already-paid account reports the
// current state instead of failing, so webhook retries and double clicks
// never corrupt the ledger.
func (s *ReconciliationService) MarkPaid(ctx context.Context, accountID uuid.UUID, req MarkPaidRequest) (*MarkPaidResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.IsPaid() {
		posted, err := s.sessionRepo.HasMovementForAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		resp := &MarkPaidResponse{
			Account:        ToAccountResponse(account, time.Now()),
			MovementPosted: posted,
		}
		if !posted {
			resp.Warning = WarnMovementMissing
		}
		return resp, nil
	}

	paidDate := time.Now()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}

	if err := account.MarkPaid(paidDate, req.PaymentMethod); err != nil {
		return nil, err
	}
	if account.Boleto != nil && account.Boleto.IsLive() {
		// Manual settlement of a boleto-carrying account settles the boleto too
		if err := account.Boleto.MarkPaid(paidDate); err != nil {
			return nil, err
		}
		if s.boletoRepo != nil {
			if err := s.boletoRepo.Save(ctx, account.Boleto); err != nil {
				return nil, err
			}
		}
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	posted, err := s.postSettlementMovement(ctx, account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account settled",
		zap.String("account_id", account.ID.String()),
		zap.String("kind", account.Kind.String()),
		zap.String("amount", account.Amount.String()),
		zap.Bool("movement_posted", posted))

	resp := &MarkPaidResponse{
		Account:        ToAccountResponse(account, time.Now()),
		MovementPosted: posted,
	}
	if !posted {
		resp.Warning = WarnNoOpenSession
	}
	return resp, nil
}

// postSettlementMovement appends the settlement movement to the open session.
// Returns false with no error when no session is open. A duplicate movement
// for the account, in memory or at the database constraint, counts as posted.
func (s *ReconciliationService) postSettlementMovement(ctx context.Context, account *ledger.Account) (bool, error) {
	mu := s.tillSvc.lock()
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessionRepo.FindOpen(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	already, err := s.sessionRepo.HasMovementForAccount(ctx, account.ID)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}

	movement, err := ledger.NewMovement(
		session.ID,
		account.Kind.MovementType(),
		account.Amount,
		settlementDescription(account),
	)
	if err != nil {
		return false, err
	}
	movement.AccountID = &account.ID
	movement.Category = account.Category
	movement.PaymentMethod = account.PaymentMethod

	if err := session.Append(movement); err != nil {
		if shared.IsConflict(err) {
			return true, nil
		}
		return false, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return true, nil
		}
		return false, err
	}

	return true, nil
}

// PendingPostings lists settled accounts whose till movement was never
// posted, so an operator can reconcile them into the next session.
func (s *ReconciliationService) PendingPostings(ctx context.Context) ([]*AccountResponse, error) {
	paid, err := s.accountRepo.FindAll(ctx, ledger.AccountFilter{Status: ledger.AccountStatusPaid})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pending := make([]*AccountResponse, 0)
	for _, account := range paid {
		posted, err := s.sessionRepo.HasMovementForAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if !posted {
			pending = append(pending, ToAccountResponse(account, now))
		}
	}
	return pending, nil
}

// RetryPosting posts the settlement movement of an already-paid account into
// the currently open session
func (s *ReconciliationService) RetryPosting(ctx context.Context, accountID uuid.UUID) (*MarkPaidResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsPaid() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Account is not settled yet")
	}

	posted, err := s.postSettlementMovement(ctx, account)
	if err != nil {
		return nil, err
	}

	resp := &MarkPaidResponse{
		Account:        ToAccountResponse(account, time.Now()),
		MovementPosted: posted,
	}
	if !posted {
		resp.Warning = WarnNoOpenSession
	}
	return resp, nil
}

func settlementDescription(account *ledger.Account) string {
	verb := "Recebimento"
	if account.Kind == ledger.AccountKindPayable {
		verb = "Pagamento"
	}
	return fmt.Sprintf("%s: %s", verb, account.Description)
}
