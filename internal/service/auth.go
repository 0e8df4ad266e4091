// Package service holds the business operations that sit between the HTTP
// handlers and the stores.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/config"
	"realty_backend/pkg/utils/jwt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// SessionRecorder is the audit log of issued tokens.
type SessionRecorder interface {
	Record(ctx context.Context, s *model.AdminSession) error
	Touch(ctx context.Context, tokenID string) error
	Revoke(ctx context.Context, tokenID string) error
}

// RequestMeta is the client information stored with a session.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// AdminAuth checks the single configured admin credential and issues tokens.
type AdminAuth struct {
	username string
	hash     []byte
	tokens   *jwt.Manager
	sessions SessionRecorder
	log      *logrus.Logger
}

func NewAdminAuth(cfg config.AuthConfig, tokens *jwt.Manager, sessions SessionRecorder, log *logrus.Logger) (*AdminAuth, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		if cfg.AdminPassword == "" {
			return nil, config.ErrMissingPassword
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
	}

	return &AdminAuth{
		username: strings.TrimSpace(cfg.AdminUsername),
		hash:     hash,
		tokens:   tokens,
		sessions: sessions,
		log:      log,
	}, nil
}

// Login compares the username case-insensitively and the password exactly.
// Both mismatches produce the same error.
func (a *AdminAuth) Login(ctx context.Context, username, password string, meta RequestMeta) (*LoginResult, error) {
	userOK := strings.EqualFold(strings.TrimSpace(username), a.username)
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || passErr != nil {
		return nil, apperror.Unauthorized()
	}

	token, claims, err := a.tokens.Generate(a.username, jwt.RoleAdmin)
	if err != nil {
		return nil, apperror.Internal("Could not generate token", err)
	}

	if a.sessions != nil {
		sess := &model.AdminSession{
			TokenID:   claims.ID,
			Username:  a.username,
			ExpiresAt: claims.ExpiresAt.Time,
			IPAddress: meta.IP,
			UserAgent: meta.UserAgent,
		}
		if err := a.sessions.Record(ctx, sess); err != nil {
			a.log.WithError(err).Warn("Failed to record admin session")
		}
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Username:  a.username,
		Role:      claims.Role,
	}, nil
}

// Verify accepts only unexpired, correctly signed admin tokens.
func (a *AdminAuth) Verify(token string) (*jwt.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.Unauthorized()
	}
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized()
	}
	if claims.Role != jwt.RoleAdmin {
		return nil, apperror.Unauthorized()
	}
	return claims, nil
}

// Touch updates the session's last activity. Failures are only logged.
func (a *AdminAuth) Touch(ctx context.Context, claims *jwt.Claims) {
	if a.sessions == nil || claims == nil {
		return
	}
	if err := a.sessions.Touch(ctx, claims.ID); err != nil {
		a.log.WithError(err).Debug("Failed to touch admin session")
	}
}

// Logout flags the session row. The token stays valid until it expires.
func (a *AdminAuth) Logout(ctx context.Context, claims *jwt.Claims) {
	if a.sessions == nil || claims == nil {
		return
	}
	if err := a.sessions.Revoke(ctx, claims.ID); err != nil {
		a.log.WithError(err).Warn("Failed to revoke admin session")
	}
}
