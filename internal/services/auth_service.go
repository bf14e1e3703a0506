package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"promptdesk-backend/internal/auth"
	"promptdesk-backend/internal/config"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrCreatingOrgOrUser  = errors.New("failed to create organization or user")
)

type AuthService struct {
	store  store.Store
	cfg    *config.Config
	logger *zap.Logger
}

func NewAuthService(s store.Store, cfg *config.Config, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:  s,
		cfg:    cfg,
		logger: logger.Named("auth"),
	}
}

// Signup creates a new organization and its first user.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(req.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, auth.MinPasswordLength)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("Checking user existence failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Hashing password failed", zap.String("email", email), zap.Error(err))
		return nil, ErrHashingPassword
	}

	orgName := strings.TrimSpace(req.OrganizationName)
	if orgName == "" {
		orgName = fmt.Sprintf("%s's Workspace", email)
	}
	org := &models.Organization{ID: uuid.New(), Name: orgName}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		s.logger.Error("Creating organization failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("%w: creating organization failed: %v", ErrCreatingOrgOrUser, err)
	}

	user := &models.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          email,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error("Creating user failed", zap.String("email", email), zap.Stringer("org_id", org.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: creating user failed: %v", ErrCreatingOrgOrUser, err)
	}

	s.logger.Info("User signed up", zap.Stringer("user_id", user.ID), zap.Stringer("org_id", org.ID))
	return user, nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		s.logger.Error("Retrieving user during login failed", zap.String("email", email), zap.Error(err))
		return "", nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(user.ID, user.OrganizationID, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		s.logger.Error("Generating JWT failed", zap.Stringer("user_id", user.ID), zap.Error(err))
		return "", nil, ErrCreatingToken
	}

	s.logger.Info("User logged in", zap.Stringer("user_id", user.ID))
	return token, user, nil
}
