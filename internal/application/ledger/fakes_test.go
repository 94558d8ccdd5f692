package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/ledger"
	"github.com/izakgestao/backend/internal/domain/shared"
)

// In-memory repositories backing the service tests. They enforce the same
// contracts the persistence layer does, including the one-movement-per-account
// constraint and the single-open-session rule.

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*ledger.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[uuid.UUID]*ledger.Account)}
}

func (r *memAccountRepo) Save(_ context.Context, account *ledger.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *memAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *memAccountRepo) FindAll(_ context.Context, filter ledger.AccountFilter) ([]*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ledger.Account, 0)
	for _, a := range r.accounts {
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		if filter.Status == ledger.AccountStatusPaid && !a.IsPaid() {
			continue
		}
		if filter.Status == ledger.AccountStatusPending && a.IsPaid() {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if filter.Offset > 0 && filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else if filter.Offset >= len(out) && filter.Offset > 0 {
		out = nil
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memAccountRepo) Count(ctx context.Context, filter ledger.AccountFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	all, err := r.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (r *memAccountRepo) FindByBoletoID(_ context.Context, boletoID string) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Boleto != nil && a.Boleto.ID == boletoID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memAccountRepo) FindUnpaid(ctx context.Context) ([]*ledger.Account, error) {
	return r.FindAll(ctx, ledger.AccountFilter{Status: ledger.AccountStatusPending})
}

func (r *memAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*ledger.TillSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*ledger.TillSession)}
}

func (r *memSessionRepo) Save(_ context.Context, session *ledger.TillSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Database-level guarantee: at most one stored movement per account
	for i := range session.Movements {
		m := &session.Movements[i]
		if m.AccountID == nil {
			continue
		}
		for _, other := range r.sessions {
			if other.ID == session.ID {
				continue
			}
			for j := range other.Movements {
				if other.Movements[j].AccountID != nil && *other.Movements[j].AccountID == *m.AccountID {
					return shared.ErrAlreadyExists
				}
			}
		}
	}
	cp := *session
	cp.Movements = append(ledger.Movements{}, session.Movements...)
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.TillSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *session
	cp.Movements = append(ledger.Movements{}, session.Movements...)
	return &cp, nil
}

func (r *memSessionRepo) FindOpen(_ context.Context) (*ledger.TillSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.IsOpen() {
			cp := *session
			cp.Movements = append(ledger.Movements{}, session.Movements...)
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memSessionRepo) FindAll(_ context.Context, limit, offset int) ([]*ledger.TillSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ledger.TillSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		cp := *session
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSessionRepo) HasMovementForAccount(_ context.Context, accountID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		for i := range session.Movements {
			if session.Movements[i].AccountID != nil && *session.Movements[i].AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

type memBoletoRepo struct {
	mu      sync.Mutex
	records map[string]*ledger.BoletoRecord
}

func newMemBoletoRepo() *memBoletoRepo {
	return &memBoletoRepo{records: make(map[string]*ledger.BoletoRecord)}
}

func (r *memBoletoRepo) Save(_ context.Context, record *ledger.BoletoRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *memBoletoRepo) FindByID(_ context.Context, boletoID string) (*ledger.BoletoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[boletoID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (r *memBoletoRepo) FindByAccountID(_ context.Context, accountID uuid.UUID) (*ledger.BoletoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.AccountID != nil && *record.AccountID == accountID {
			cp := *record
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

type memIdempotency struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{seen: make(map[string]struct{})}
}

func (s *memIdempotency) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = struct{}{}
	return true, nil
}

func (s *memIdempotency) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[eventID]
	return ok, nil
}

func (s *memIdempotency) Close() error { return nil }

// scriptedGateway lets a test control what the provider answers
type scriptedGateway struct {
	provider  ledger.ProviderType
	issueFn   func(ctx context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error)
	queryFn   func(ctx context.Context, boletoID string) (*ledger.QueryBoletoResponse, error)
	cancelFn  func(ctx context.Context, boletoID string) (*ledger.CancelBoletoResponse, error)
	issueHits int
	queryHits int
}

func (g *scriptedGateway) ProviderType() ledger.ProviderType { return g.provider }

func (g *scriptedGateway) Issue(ctx context.Context, req *ledger.IssueBoletoRequest) (*ledger.IssueBoletoResponse, error) {
	g.issueHits++
	return g.issueFn(ctx, req)
}

func (g *scriptedGateway) Query(ctx context.Context, boletoID string) (*ledger.QueryBoletoResponse, error) {
	g.queryHits++
	if g.queryFn == nil {
		return nil, ledger.NewGatewayError(g.provider, "query", 0, "", context.DeadlineExceeded)
	}
	return g.queryFn(ctx, boletoID)
}

func (g *scriptedGateway) Cancel(ctx context.Context, boletoID string) (*ledger.CancelBoletoResponse, error) {
	if g.cancelFn == nil {
		return &ledger.CancelBoletoResponse{ID: boletoID, Status: ledger.BoletoStatusCanceled, CanceledAt: time.Now()}, nil
	}
	return g.cancelFn(ctx, boletoID)
}
