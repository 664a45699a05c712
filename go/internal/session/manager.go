// Package session turns externally issued tokens into the sync engine's
// authenticated and unauthenticated signals.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrNoSession    = errors.New("no active session")
	// ErrNotSignedIn is returned by Authorize for a valid token whose
	// subject is not the signed-in user
	ErrNotSignedIn = fmt.Errorf("%w: subject is not signed in", ErrInvalidToken)
)

// Lifecycle is the part of the sync engine a session drives
type Lifecycle interface {
	Authenticated(ctx context.Context, userID string) error
	Unauthenticated(ctx context.Context) error
}

// Manager holds at most one signed-in user. The session ends on Logout or
// when the token that opened it expires.
type Manager struct {
	lifecycle Lifecycle
	secret    []byte
	clock     clockwork.Clock

	mu      sync.Mutex
	userID  string
	expires time.Time
	timer   clockwork.Timer
	// bumped on every login and logout so a stale expiry timer is ignored
	epoch uint64
}

// NewManager creates a session manager that verifies HS256 tokens with secret
func NewManager(lifecycle Lifecycle, secret []byte, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		lifecycle: lifecycle,
		secret:    secret,
		clock:     clock,
	}
}

// Issue signs a token for userID valid for ttl
func (m *Manager) Issue(userID string, ttl time.Duration) (string, error) {
	now := m.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Login verifies token and signs its subject in. Signing in as another user
// ends the current session first; signing in again as the same user only
// moves the expiry. The returned error may report collections that failed
// to subscribe while the session is still active.
func (m *Manager) Login(ctx context.Context, token string) (string, error) {
	claims, err := m.verify(token)
	if err != nil {
		return "", err
	}
	userID := claims.Subject

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userID != "" && m.userID != userID {
		if err := m.endLocked(ctx); err != nil {
			return "", err
		}
	}

	m.epoch++
	m.userID = userID
	m.expires = claims.ExpiresAt.Time
	m.scheduleLocked()

	log.Info().Str("user_id", userID).Time("expires_at", m.expires).Msg("user signed in")

	if err := m.lifecycle.Authenticated(ctx, userID); err != nil {
		return userID, fmt.Errorf("failed to start sync: %w", err)
	}
	return userID, nil
}

// Logout ends the current session
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userID == "" {
		return ErrNoSession
	}
	return m.endLocked(ctx)
}

// Current returns the signed-in user, empty when nobody is
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// ExpiresAt returns when the current session ends on its own
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expires, m.userID != ""
}

// Authorize checks that token is valid and belongs to the signed-in user,
// and returns that user's id
func (m *Manager) Authorize(token string) (string, error) {
	claims, err := m.verify(token)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userID == "" {
		return "", ErrNoSession
	}
	if claims.Subject != m.userID {
		return "", ErrNotSignedIn
	}
	return claims.Subject, nil
}

func (m *Manager) verify(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	// expiry is checked against m.clock below
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	if !m.clock.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func (m *Manager) scheduleLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	epoch := m.epoch
	m.timer = m.clock.AfterFunc(m.expires.Sub(m.clock.Now()), func() {
		m.expire(epoch)
	})
}

func (m *Manager) expire(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || m.userID == "" {
		return
	}
	log.Info().Str("user_id", m.userID).Msg("session expired")
	if err := m.endLocked(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to end expired session")
	}
}

func (m *Manager) endLocked(ctx context.Context) error {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	userID := m.userID
	m.epoch++
	m.userID = ""
	m.expires = time.Time{}

	if err := m.lifecycle.Unauthenticated(ctx); err != nil {
		return fmt.Errorf("failed to stop sync: %w", err)
	}
	log.Info().Str("user_id", userID).Msg("user signed out")
	return nil
}
