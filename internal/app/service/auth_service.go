package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/lumberhaus/storefront-backend/pkg/util"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
}

// AuthService manages storefront customer accounts. Admin access does not go
// through it.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
}

type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	StoreTimeout  time.Duration
}

type authService struct {
	userRepo repository.UserRepository
	cfg      AuthConfig
}

func NewAuthService(userRepo repository.UserRepository, cfg AuthConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, invalid("email", apperrors.ValidationInvalidFormat, "email is not a valid address")
	}
	if name == "" {
		return nil, nil, invalid("name", apperrors.ValidationRequired, "name is required")
	}
	if err := util.CheckPasswordStrength(input.Password); err != nil {
		code := apperrors.ValidationTooShort
		if errors.Is(err, util.ErrPasswordTooLong) {
			code = apperrors.ValidationTooLong
		}
		return nil, nil, invalid("password", code, err.Error())
	}

	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	existing, err := s.userRepo.FindByEmail(storeCtx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		Role:         model.RoleCustomer,
	}
	if err := s.userRepo.Create(storeCtx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.userRepo.FindByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new pair. The account must
// still exist.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}

	user, err := s.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.userRepo.FindByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.cfg.JWTSecret,
		s.cfg.AccessExpiry,
		s.cfg.RefreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
