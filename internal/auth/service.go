package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/models"
	"etickets/internal/utils"
)

type DBLayer interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SetToken(ctx context.Context, userID int64, token string) error
}

type AuthService struct {
	DB        DBLayer
	Tokens    *TokenManager
	Limiter   LoginLimiter
	Logger    *logger.Logger
	Validator *validator.Validate
}

func NewAuthService(db DBLayer, tokens *TokenManager, limiter LoginLimiter, log *logger.Logger) *AuthService {
	if limiter == nil {
		limiter = NoopLimiter{}
	}
	return &AuthService{
		DB:        db,
		Tokens:    tokens,
		Limiter:   limiter,
		Logger:    log,
		Validator: utils.NewValidator(),
	}
}

// Login checks the password and rotates the user's session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateStruct(s.Validator, req); err != nil {
		return nil, err
	}

	allowed, err := s.Limiter.Allow(ctx, req.Email)
	if err != nil {
		// Fail open: a Redis outage must not lock admins out.
		s.Logger.Warn("AUTH", fmt.Sprintf("Login limiter unavailable: %v", err))
	}
	if !allowed {
		s.Logger.LogSecurity("LOGIN_THROTTLED", req.Email)
		return nil, fmt.Errorf("%w: too many login attempts, try again later", errs.ErrTooManyRequests)
	}

	user, err := s.DB.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, errs.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN_FAILED", req.Email)
		return nil, fmt.Errorf("%w: wrong email or password", errs.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", req.Email)
		return nil, fmt.Errorf("%w: wrong email or password", errs.ErrInvalidCredentials)
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.DB.SetToken(ctx, user.ID, token); err != nil {
		return nil, err
	}
	if err := s.Limiter.Reset(ctx, req.Email); err != nil {
		s.Logger.Warn("AUTH", fmt.Sprintf("Reset login attempts for %s: %v", req.Email, err))
	}

	s.Logger.Info("AUTH", fmt.Sprintf("User %d (%s) logged in", user.ID, user.Role))
	return &models.LoginResponse{Token: token, User: user.View()}, nil
}

// Register creates a customer account.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserView, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(s.Validator, req); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:    req.Email,
		Password: hash,
		Name:     req.Name,
		Role:     models.RoleCustomer,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.Logger.Info("AUTH", fmt.Sprintf("Registered user %d", user.ID))
	view := user.View()
	return &view, nil
}

// Logout clears the stored token so it stops authenticating.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.DB.SetToken(ctx, userID, ""); err != nil {
		return err
	}
	s.Logger.Info("AUTH", fmt.Sprintf("User %d logged out", userID))
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
