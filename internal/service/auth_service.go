package service

import (
	"context"
	"log/slog"

	"github.com/rupaya-app/rupaya/internal/apperr"
	"github.com/rupaya-app/rupaya/internal/auth"
	"github.com/rupaya-app/rupaya/internal/storage"
)

// AuthService handles registration, login and profile lookups, issuing JWTs
// on success.
type AuthService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{store: store, authenticator: authenticator, jwtManager: jwtManager}
}

// RegisterRequest carries the inputs for account creation.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest carries the inputs for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the login/registration result: the authenticated user and
// a signed token.
type AuthResponse struct {
	Token string    `json:"token"`
	User  *UserView `json:"user"`
}

// Register creates a new account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	user, err := s.authenticator.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to sign token", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return &AuthResponse{Token: token, User: userView(user)}, nil
}

// Login authenticates the credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to sign token", err)
	}
	return &AuthResponse{Token: token, User: userView(user)}, nil
}

// GetProfile returns the caller's own user record.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return userView(user), nil
}
