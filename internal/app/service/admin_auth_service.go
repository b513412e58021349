package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/lumberhaus/storefront-backend/pkg/redis"
	"github.com/lumberhaus/storefront-backend/pkg/util"
)

const adminSessionPrefix = "admin"

var (
	ErrAdminNotConfigured   = errors.New("admin password is not configured")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrAdminSessionInvalid  = errors.New("admin session is invalid or expired")
)

type AdminSession struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

type AdminAuthConfig struct {
	Password      string
	SessionSecret string
	SessionTTL    time.Duration
	StoreTimeout  time.Duration
}

type AdminAuthService interface {
	Login(ctx context.Context, password string) (*AdminSession, error)
	Logout(ctx context.Context, token string) error
	// Verify returns the session id carried by a valid, unrevoked token.
	Verify(ctx context.Context, token string) (string, error)
}

type adminAuthService struct {
	cfg      AdminAuthConfig
	sessions redis.SessionStore
	tracker  analytics.Tracker
	now      func() time.Time
}

// NewAdminAuthService builds the admin credential gate. A nil session store
// disables revocation checks.
func NewAdminAuthService(cfg AdminAuthConfig, sessions redis.SessionStore, tracker analytics.Tracker) AdminAuthService {
	if tracker == nil {
		tracker = analytics.NewNoopTracker()
	}
	return &adminAuthService{
		cfg:      cfg,
		sessions: sessions,
		tracker:  tracker,
		now:      time.Now,
	}
}

func (s *adminAuthService) Login(ctx context.Context, password string) (*AdminSession, error) {
	logger.Info("Admin login attempt", map[string]interface{}{
		"password_length": len(password),
	})

	if s.cfg.Password == "" {
		logger.Error("Admin login rejected: ADMIN_PASSWORD is not set", ErrAdminNotConfigured, nil)
		return nil, ErrAdminNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) != 1 {
		logger.Warn("Admin login failed: password mismatch", map[string]interface{}{
			"password_length": len(password),
		})
		return nil, ErrInvalidAdminPassword
	}

	now := s.now()
	sessionID, err := util.NewSessionID(adminSessionPrefix, now)
	if err != nil {
		logger.Error("Failed to generate admin session id", err, nil)
		return nil, err
	}

	token, err := util.GenerateAdminToken(sessionID, s.cfg.SessionSecret, s.cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to sign admin token", err, nil)
		return nil, err
	}

	if s.sessions != nil {
		storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
		defer cancel()
		if err := s.sessions.Save(storeCtx, sessionID, s.cfg.SessionTTL); err != nil {
			return nil, fmt.Errorf("save admin session: %w", err)
		}
	}

	s.tracker.Track(ctx, analytics.NewEvent(analytics.EventAdminLogin, "server", "", nil))

	logger.Info("Admin login succeeded", map[string]interface{}{
		"session_id": sessionID,
	})
	return &AdminSession{
		ID:        sessionID,
		Token:     token,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}, nil
}

func (s *adminAuthService) Verify(ctx context.Context, token string) (string, error) {
	claims, err := util.ValidateAdminToken(token, s.cfg.SessionSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdminSessionInvalid, err)
	}

	if s.sessions == nil {
		return claims.ID, nil
	}

	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	ok, err := s.sessions.Exists(storeCtx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("%w: session lookup failed: %v", ErrAdminSessionInvalid, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: session revoked", ErrAdminSessionInvalid)
	}
	return claims.ID, nil
}

// Logout revokes the session behind token. Unknown or malformed tokens are
// ignored.
func (s *adminAuthService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateAdminToken(token, s.cfg.SessionSecret)
	if err != nil || s.sessions == nil {
		return nil
	}

	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.sessions.Delete(storeCtx, claims.ID); err != nil {
		return fmt.Errorf("revoke admin session: %w", err)
	}

	logger.Info("Admin session revoked", map[string]interface{}{
		"session_id": claims.ID,
	})
	return nil
}
