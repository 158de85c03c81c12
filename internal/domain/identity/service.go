package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
)

// ResetNotifier delivers password reset codes.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// Options holds the account policy read from configuration.
type Options struct {
	AllowSignup bool
	ResetTTL    time.Duration
}

type Service struct {
	accounts AccountRepository
	profiles ProfileRepository
	resets   ResetRepository
	tokens   *auth.TokenManager
	denylist *auth.Denylist
	notifier ResetNotifier
	inTx     db.TxFunc
	opts     Options
	metrics  *metrics.Collector
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	accounts AccountRepository,
	profiles ProfileRepository,
	resets ResetRepository,
	tokens *auth.TokenManager,
	denylist *auth.Denylist,
	notifier ResetNotifier,
	inTx db.TxFunc,
	opts Options,
	col *metrics.Collector,
	logger zerolog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		profiles: profiles,
		resets:   resets,
		tokens:   tokens,
		denylist: denylist,
		notifier: notifier,
		inTx:     inTx,
		opts:     opts,
		metrics:  col,
		logger:   logger,
		now:      time.Now,
	}
}

// -- Accounts --

// Signup registers a new account when sign-up is enabled.
func (s *Service) Signup(ctx context.Context, c Credentials) (*Account, error) {
	if !s.opts.AllowSignup {
		return nil, ErrSignupDisabled
	}
	return s.CreateAccount(ctx, c)
}

// CreateAccount registers an account regardless of the sign-up policy.
func (s *Service) CreateAccount(ctx context.Context, c Credentials) (*Account, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		return nil, err
	}
	a := &Account{Email: c.Email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, c Credentials) (*auth.AccessToken, error) {
	a, err := s.accounts.GetByEmail(ctx, NormalizeEmail(c.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		auth.BurnPasswordCheck(c.Password)
		s.metrics.LoginAttempt("failure")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(a.PasswordHash, c.Password) {
		s.metrics.LoginAttempt("failure")
		return nil, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(a.ID, a.Email)
	if err != nil {
		return nil, err
	}
	s.metrics.LoginAttempt("success")
	return tok, nil
}

func (s *Service) Me(ctx context.Context, ownerID uuid.UUID) (*Account, error) {
	return s.accounts.GetByID(ctx, ownerID)
}

// Logout denies the token until it would have expired on its own.
func (s *Service) Logout(claims *auth.Claims) {
	if s.denylist == nil || claims.ExpiresAt == nil {
		return
	}
	s.denylist.Revoke(claims.ID, claims.ExpiresAt.Time)
}

// -- Password reset --

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RequestPasswordReset issues a reset code for the account, if one exists.
// Unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	r := &PasswordReset{
		AccountID: a.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: s.now().Add(s.opts.ResetTTL),
	}
	if err := s.resets.Create(ctx, r); err != nil {
		return err
	}
	if err := s.notifier.SendPasswordReset(ctx, a.Email, token, r.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", a.ID.String()).Msg("password reset issued")
	return nil
}

// ConfirmPasswordReset sets a new password using a reset code. Each code
// works once and only before it expires.
func (s *Service) ConfirmPasswordReset(ctx context.Context, rc ResetConfirmation) error {
	if err := auth.ValidatePassword(rc.Password); err != nil {
		return apperr.Invalid("%s", err.Error())
	}
	r, err := s.resets.GetByTokenHash(ctx, hashResetToken(rc.Token))
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}
	now := s.now()
	if !r.Usable(now) {
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(rc.Password)
	if err != nil {
		return err
	}
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.resets.MarkUsed(ctx, r.ID, now); err != nil {
			return err
		}
		return s.accounts.UpdatePassword(ctx, r.AccountID, hash)
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrInvalidResetToken
	}
	return err
}

// -- Profile --

// GetProfile returns the owner's profile, or an empty one carrying the
// account email when none was saved yet.
func (s *Service) GetProfile(ctx context.Context, ownerID uuid.UUID) (*Profile, error) {
	a, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, ownerID)
	if errors.Is(err, apperr.ErrNotFound) {
		p = &Profile{ID: ownerID}
	} else if err != nil {
		return nil, err
	}
	p.Email = a.Email
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	a, err := s.accounts.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return err
	}
	p.Email = a.Email
	return nil
}
