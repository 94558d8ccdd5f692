package identity

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	domainidentity "github.com/izakgestao/backend/internal/domain/identity"
	"github.com/izakgestao/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domainidentity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domainidentity.User)}
}

func (r *memUserRepo) Save(_ context.Context, user *domainidentity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domainidentity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domainidentity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type staticIssuer struct{}

func (staticIssuer) IssueToken(userID uuid.UUID, _ string) (string, time.Time, error) {
	return "token-" + userID.String(), time.Now().Add(time.Hour), nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, staticIssuer{})
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{Name: "Outra", Email: "MARIA@example.com", Password: "segredo2"})
		assert.Error(t, err)
		assert.Equal(t, shared.CodeConflict, shared.CodeOf(err))
	})

	t.Run("login", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "maria@example.com", Password: "segredo1"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.ID, resp.User.ID)
		require.NotNil(t, resp.User.LastLoginAt)
	})

	t.Run("wrong password and unknown email look alike", func(t *testing.T) {
		_, err1 := svc.Login(ctx, LoginRequest{Email: "maria@example.com", Password: "errada"})
		_, err2 := svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "qualquer"})
		require.Error(t, err1)
		require.Error(t, err2)
		assert.Equal(t, err1.Error(), err2.Error())
	})
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewAuthService(repo, staticIssuer{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Joao", Email: "joao@example.com", Password: "antiga123"})
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, ResetRequest{Email: "joao@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		tk, err := svc.RequestPasswordReset(ctx, ResetRequest{Email: "ghost@example.com"})
		require.NoError(t, err)
		assert.Empty(t, tk)
	})

	require.NoError(t, svc.ResetPassword(ctx, ResetConfirmRequest{
		Email:       "joao@example.com",
		Token:       token,
		NewPassword: "nova12345",
	}))

	_, err = svc.Login(ctx, LoginRequest{Email: "joao@example.com", Password: "nova12345"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginRequest{Email: "joao@example.com", Password: "antiga123"})
	assert.Error(t, err)
}
