package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/pkg/cryptox"
	"github.com/aussiebroadwan/portalfiscal/pkg/idx"
)

// CookieName is the cookie that carries the raw session value.
const CookieName = "portal_session"

// touchAfter bounds how often a read-only request rewrites the record just to
// keep it from going idle.
const touchAfter = time.Minute

// Service owns the session lifecycle. The cookie value never reaches the
// store; records are keyed by its fingerprint and the bearer token is sealed.
type Service struct {
	store   Store
	sealer  *cryptox.Sealer
	idleTTL time.Duration
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, sealer *cryptox.Sealer, idleTTL time.Duration, opts ...Option) *Service {
	if idleTTL <= 0 {
		idleTTL = 12 * time.Hour
	}
	s := &Service{
		store:   store,
		sealer:  sealer,
		idleTTL: idleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IdleTTL is how long a session survives without a write.
func (s *Service) IdleTTL() time.Duration { return s.idleTTL }

// Begin creates and stores an empty session, returning the cookie value.
func (s *Service) Begin(ctx context.Context) (string, *domain.Session, error) {
	secret, err := cryptox.NewCookieSecret()
	if err != nil {
		return "", nil, fmt.Errorf("generate session id: %w", err)
	}
	csrf, err := cryptox.NewCSRFToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate csrf token: %w", err)
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        secret.Fingerprint,
		Ref:       idx.NewAt(now).String(),
		CSRF:      csrf,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, *sess); err != nil {
		return "", nil, err
	}
	return secret.Value, sess, nil
}

// Load resolves a cookie value. Idle sessions are deleted and reported as
// ErrNotFound.
func (s *Service) Load(ctx context.Context, cookie string) (*domain.Session, error) {
	if cookie == "" {
		return nil, ErrNotFound
	}

	id := cryptox.FingerprintToken(cookie)
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.now().Sub(sess.UpdatedAt) > s.idleTTL {
		if err := s.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Save writes the session back and bumps UpdatedAt.
func (s *Service) Save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = s.now().UTC()
	return s.store.Put(ctx, *sess)
}

// Touch saves the session only if it has not been written recently.
func (s *Service) Touch(ctx context.Context, sess *domain.Session) error {
	if s.now().Sub(sess.UpdatedAt) < touchAfter {
		return nil
	}
	return s.Save(ctx, sess)
}

// Token opens the stored bearer token.
func (s *Service) Token(sess *domain.Session) (string, error) {
	if !sess.HasToken() {
		return "", ErrNoToken
	}
	token, err := s.sealer.Open(sess.SealedToken)
	if err != nil {
		return "", fmt.Errorf("open session token: %w", err)
	}
	return token, nil
}

// SetToken seals the bearer token into the session and saves it.
func (s *Service) SetToken(ctx context.Context, sess *domain.Session, token string) error {
	if token == "" {
		return ErrNoToken
	}
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("seal session token: %w", err)
	}
	sess.SealedToken = sealed
	return s.Save(ctx, sess)
}

// Clear logs the session out and removes its record.
func (s *Service) Clear(ctx context.Context, sess *domain.Session) error {
	sess.Logout()
	return s.store.Delete(ctx, sess.ID)
}

// Destroy removes the record behind a cookie value, if any.
func (s *Service) Destroy(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	err := s.store.Delete(ctx, cryptox.FingerprintToken(cookie))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// ValidCSRF compares a submitted form token with the session's.
func (s *Service) ValidCSRF(sess *domain.Session, token string) bool {
	return sess != nil && cryptox.TokensEqual(sess.CSRF, token)
}

// Prune deletes every session idle longer than the TTL.
func (s *Service) Prune(ctx context.Context) (int, error) {
	return s.store.DeleteIdleBefore(ctx, s.now().Add(-s.idleTTL))
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
