package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TillService manages the till session lifecycle. A process-wide mutex
// serializes open/close/post so the single-open-session invariant holds even
// under concurrent requests; the partial unique index on the sessions table
// backs it up across processes.
type TillService struct {
	sessionRepo ledger.TillSessionRepository
	logger      *zap.Logger
	mu          sync.Mutex
}

// TillServiceOption configures a TillService
type TillServiceOption func(*TillService)

// WithTillLogger sets the logger
func WithTillLogger(logger *zap.Logger) TillServiceOption {
	return func(s *TillService) {
		s.logger = logger
	}
}

// NewTillService creates a new TillService
func NewTillService(sessionRepo ledger.TillSessionRepository, opts ...TillServiceOption) *TillService {
	s := &TillService{
		sessionRepo: sessionRepo,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a new till session. Fails with a conflict if one is already open.
func (s *TillService) Open(ctx context.Context, req OpenTillSessionRequest) (*TillSessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.sessionRepo.FindOpen(ctx)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError(shared.CodeConflict, "A till session is already open")
	}

	session, err := ledger.NewTillSession(req.OpeningBalance, req.OpenedBy)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Till session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("opened_by", session.OpenedBy),
		zap.String("opening_balance", session.OpeningBalance.String()))

	return ToTillSessionResponse(session), nil
}

// Close closes the open till session against the operator's cash count
func (s *TillService) Close(ctx context.Context, req CloseTillSessionRequest) (*TillSessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessionRepo.FindOpen(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(shared.CodeInvalidState, "No till session is open")
		}
		return nil, err
	}

	if err := session.Close(req.ReportedCash, req.Notes); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Till session closed",
		zap.String("session_id", session.ID.String()),
		zap.String("expected", session.ClosingBalance.String()),
		zap.String("reported", req.ReportedCash.String()),
		zap.String("discrepancy", session.Discrepancy.String()))

	return ToTillSessionResponse(session), nil
}

// PostMovement records a manual cash entry or exit on the open session
func (s *TillService) PostMovement(ctx context.Context, req PostMovementRequest) (*MovementResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessionRepo.FindOpen(ctx)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(shared.CodeInvalidState, "No till session is open")
		}
		return nil, err
	}

	movement, err := ledger.NewMovement(session.ID, ledger.MovementType(req.Type), req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	movement.Category = req.Category
	movement.PaymentMethod = req.PaymentMethod

	if err := session.Append(movement); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	return ToMovementResponse(movement), nil
}

// GetOpen returns the currently open session
func (s *TillService) GetOpen(ctx context.Context) (*TillSessionResponse, error) {
	session, err := s.sessionRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}
	return ToTillSessionResponse(session), nil
}

// GetSession retrieves a session, open or closed, with its movement log
func (s *TillService) GetSession(ctx context.Context, id uuid.UUID) (*TillSessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTillSessionResponse(session), nil
}

// ListSessions lists sessions newest first
func (s *TillService) ListSessions(ctx context.Context, page, pageSize int) ([]*TillSessionResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = defaultPageSize
	}

	sessions, err := s.sessionRepo.FindAll(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*TillSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, ToTillSessionResponse(session))
	}
	return items, nil
}

// lock exposes the session mutex to collaborating services in this package
// so settlement posting serializes with open/close.
func (s *TillService) lock() *sync.Mutex {
	return &s.mu
}
