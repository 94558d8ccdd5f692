package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/izakgestao/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultPageSize = 50

// LedgerService provides application-level operations over receivable and
// payable accounts
type LedgerService struct {
	accountRepo ledger.AccountRepository
	logger      *zap.Logger
}

// LedgerServiceOption configures a LedgerService
type LedgerServiceOption func(*LedgerService)

// WithLedgerLogger sets the logger
func WithLedgerLogger(logger *zap.Logger) LedgerServiceOption {
	return func(s *LedgerService) {
		s.logger = logger
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(accountRepo ledger.AccountRepository, opts ...LedgerServiceOption) *LedgerService {
	s := &LedgerService{
		accountRepo: accountRepo,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount creates a new receivable or payable account
func (s *LedgerService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*AccountResponse, error) {
	amount := valueobject.NewMoneyBRL(req.Amount)

	account, err := ledger.NewAccount(
		ledger.AccountKind(req.Kind),
		req.Description,
		req.Category,
		amount,
		req.DueDate,
		req.Counterparty,
	)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		account.Notes = req.Notes
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("kind", account.Kind.String()),
		zap.String("amount", account.Amount.String()))

	return ToAccountResponse(account, time.Now()), nil
}

// UpdateAccount updates the editable fields of an unpaid account
func (s *LedgerService) UpdateAccount(ctx context.Context, id uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.IsPaid() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Paid accounts cannot be edited")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Amount must be positive")
	}
	if req.Description == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Description cannot be empty")
	}
	if req.DueDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Due date is required")
	}

	account.Description = req.Description
	account.Category = req.Category
	account.Amount = req.Amount
	account.DueDate = req.DueDate
	account.Counterparty = req.Counterparty
	account.Notes = req.Notes
	account.Recalculate(time.Now())
	account.UpdatedAt = time.Now()
	account.IncrementVersion()

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	return ToAccountResponse(account, time.Now()), nil
}

// GetAccount retrieves a single account
func (s *LedgerService) GetAccount(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAccountResponse(account, time.Now()), nil
}

// ListAccounts lists accounts ordered by due date, with the status derived
// at read time so overdue entries show as overdue without a background job
func (s *LedgerService) ListAccounts(ctx context.Context, filter AccountListFilter) (*AccountListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = defaultPageSize
	}

	now := time.Now()
	domainFilter := ledger.AccountFilter{
		Kind:         ledger.AccountKind(filter.Kind),
		Category:     filter.Category,
		Counterparty: filter.Counterparty,
		DueAfter:     filter.DueAfter,
		DueBefore:    filter.DueBefore,
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
	}

	// OVERDUE is derived, not stored: the repository only knows PENDING and
	// PAID, so an overdue query fetches pending rows and filters here.
	statusFilter := ledger.AccountStatus(filter.Status)
	switch statusFilter {
	case ledger.AccountStatusOverdue, ledger.AccountStatusPending:
		domainFilter.Status = ledger.AccountStatusPending
		domainFilter.Limit = 0
		domainFilter.Offset = 0
	default:
		domainFilter.Status = statusFilter
	}

	accounts, err := s.accountRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		if statusFilter == ledger.AccountStatusOverdue && a.EffectiveStatus(now) != ledger.AccountStatusOverdue {
			continue
		}
		if statusFilter == ledger.AccountStatusPending && a.EffectiveStatus(now) != ledger.AccountStatusPending {
			continue
		}
		items = append(items, ToAccountResponse(a, now))
	}

	var total int64
	if statusFilter == ledger.AccountStatusOverdue || statusFilter == ledger.AccountStatusPending {
		total = int64(len(items))
		items = paginate(items, (page-1)*pageSize, pageSize)
	} else {
		total, err = s.accountRepo.Count(ctx, domainFilter)
		if err != nil {
			return nil, err
		}
	}

	return &AccountListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DeleteAccount removes an account. Paid accounts are part of the financial
// history and accounts with a live boleto still have a charge outstanding;
// both refusals yield to an explicit force.
func (s *LedgerService) DeleteAccount(ctx context.Context, id uuid.UUID, force bool) error {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if account.IsPaid() && !force {
		return shared.NewDomainError(shared.CodeInvalidState, "Paid accounts can only be deleted with force")
	}
	if account.HasLiveBoleto() && !force {
		return shared.NewDomainError(shared.CodeConflict, "Cancel the attached boleto before deleting the account, or force the delete")
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Account deleted",
		zap.String("account_id", id.String()),
		zap.Bool("force", force))

	return nil
}

// Summary aggregates open/overdue totals and the current month's settled
// amounts for the dashboard
func (s *LedgerService) Summary(ctx context.Context) (*SummaryResponse, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	resp := &SummaryResponse{
		ReceivableOpen:    decimal.Zero,
		ReceivableOverdue: decimal.Zero,
		PayableOpen:       decimal.Zero,
		PayableOverdue:    decimal.Zero,
		ReceivedThisMonth: decimal.Zero,
		PaidThisMonth:     decimal.Zero,
	}

	unpaid, err := s.accountRepo.FindUnpaid(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range unpaid {
		overdue := a.IsOverdue(now)
		switch a.Kind {
		case ledger.AccountKindReceivable:
			resp.ReceivableOpen = resp.ReceivableOpen.Add(a.Amount)
			if overdue {
				resp.ReceivableOverdue = resp.ReceivableOverdue.Add(a.Amount)
			}
		case ledger.AccountKindPayable:
			resp.PayableOpen = resp.PayableOpen.Add(a.Amount)
			if overdue {
				resp.PayableOverdue = resp.PayableOverdue.Add(a.Amount)
			}
		}
	}

	settled, err := s.accountRepo.FindAll(ctx, ledger.AccountFilter{
		Status:   ledger.AccountStatusPaid,
		DueAfter: nil,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range settled {
		if a.PaidDate == nil || a.PaidDate.Before(monthStart) {
			continue
		}
		switch a.Kind {
		case ledger.AccountKindReceivable:
			resp.ReceivedThisMonth = resp.ReceivedThisMonth.Add(a.Amount)
		case ledger.AccountKindPayable:
			resp.PaidThisMonth = resp.PaidThisMonth.Add(a.Amount)
		}
	}

	return resp, nil
}

func paginate(items []*AccountResponse, offset, limit int) []*AccountResponse {
	if offset >= len(items) {
		return []*AccountResponse{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
