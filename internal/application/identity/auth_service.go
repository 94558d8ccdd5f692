package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/izakgestao/backend/internal/domain/identity"
	"github.com/izakgestao/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const resetTokenTTL = time.Hour

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	IssueToken(userID uuid.UUID, email string) (string, time.Time, error)
}

// AuthService handles registration, login and password recovery
type AuthService struct {
	userRepo identity.UserRepository
	tokens   TokenIssuer
	logger   *zap.Logger
}

// AuthServiceOption configures an AuthService
type AuthServiceOption func(*AuthService)

// WithAuthLogger sets the logger
func WithAuthLogger(logger *zap.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo identity.UserRepository, tokens TokenIssuer, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetRequest starts a password reset
type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetConfirmRequest completes a password reset
type ResetConfirmRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LoginResponse carries the signed token and its owner
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

func toUserResponse(u *identity.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeConflict, "Email is already registered")
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))

	return toUserResponse(user), nil
}

// Login authenticates a user and issues an access token.
// Invalid email and invalid password produce the same error so the endpoint
// does not leak which emails exist.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	invalid := shared.NewDomainError(shared.CodeValidation, "Email or password is incorrect")

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !user.IsActive() || !user.VerifyPassword(req.Password) {
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(user),
	}, nil
}

// RequestPasswordReset issues a reset token for the account, if it exists.
// The token is returned to the caller; delivery is the frontend's concern in
// this deployment. Unknown emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req ResetRequest) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	token, err := user.BeginPasswordReset(resetTokenTTL)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("Password reset requested", zap.String("user_id", user.ID.String()))

	return token, nil
}

// ResetPassword completes a reset with the token from RequestPasswordReset
func (s *AuthService) ResetPassword(ctx context.Context, req ResetConfirmRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	if err := user.CompletePasswordReset(req.Token, req.NewPassword); err != nil {
		return err
	}
	return s.userRepo.Save(ctx, user)
}
