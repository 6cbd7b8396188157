// Package auth gates content mutations behind a single admin login bound to
// a server-side session.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrUnauthorized = errors.New("unauthorized")

type Authority struct {
	creds    Credentials
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewAuthority(creds Credentials, sessions SessionStore, ttl time.Duration, logger zerolog.Logger) *Authority {
	return &Authority{
		creds:    creds,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// TTL is the lifetime of a freshly issued session.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Login issues a new admin session when the credentials match.
func (a *Authority) Login(ctx context.Context, username, password string) (Session, error) {
	if !a.creds.Verify(username, password) {
		a.logger.Warn().Str("username", username).Msg("login rejected")
		return Session{}, ErrUnauthorized
	}

	sess := Session{
		Token:     uuid.NewString(),
		IsAdmin:   true,
		ExpiresAt: a.now().Add(a.ttl),
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		return Session{}, err
	}

	a.logger.Info().Str("username", username).Time("expires_at", sess.ExpiresAt).Msg("admin logged in")
	return sess, nil
}

// Logout forgets the session. Unknown tokens are not an error.
func (a *Authority) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, token); err != nil {
		return err
	}
	a.logger.Info().Msg("admin logged out")
	return nil
}

// Require resolves a token to a live admin session. Any failure, including
// a session store error, is reported as ErrUnauthorized.
func (a *Authority) Require(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}

	sess, ok, err := a.sessions.Get(ctx, token)
	if err != nil {
		a.logger.Error().Err(err).Msg("session lookup failed")
		return Session{}, ErrUnauthorized
	}
	if !ok || !sess.IsAdmin || sess.Expired(a.now()) {
		return Session{}, ErrUnauthorized
	}
	return sess, nil
}
