package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/mailer"
)

// Service defines business logic related to identity and sessions.
type Service interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	// RequestMagicLink emails a one-time sign-in link. Unknown emails are
	// ignored silently so the endpoint does not reveal which accounts exist.
	RequestMagicLink(ctx context.Context, email, redirectTo string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	// SendInvite emails an invite link to an already provisioned user.
	SendInvite(ctx context.Context, u *User, orgName, role, redirectTo string) error
	// ExchangeCode consumes a one-time code and returns the signed-in user.
	ExchangeCode(ctx context.Context, code string) (*User, *LoginToken, error)
	UpdatePassword(ctx context.Context, userID, password, confirm string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// EnsureUser returns the user with this email, creating an active
	// passwordless account when none exists.
	EnsureUser(ctx context.Context, email string) (*User, error)

	RevokeSession(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Settings tunes link generation and password rules.
type Settings struct {
	SiteURL           string
	LoginTokenTTL     time.Duration
	InviteTokenTTL    time.Duration
	MinPasswordLength int
}

type service struct {
	repo     Repository
	hasher   auth.PasswordHasher
	mail     mailer.Mailer
	logger   *zap.Logger
	settings Settings
	now      func() time.Time
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher, mail mailer.Mailer, logger *zap.Logger, settings Settings) Service {
	if settings.MinPasswordLength <= 0 {
		settings.MinPasswordLength = 8
	}
	if settings.LoginTokenTTL <= 0 {
		settings.LoginTokenTTL = time.Hour
	}
	if settings.InviteTokenTTL <= 0 {
		settings.InviteTokenTTL = 72 * time.Hour
	}
	settings.SiteURL = strings.TrimRight(settings.SiteURL, "/")

	return &service{
		repo:     repo,
		hasher:   hasher,
		mail:     mail,
		logger:   logger,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) SignIn(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := NormalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	// Invited users have no password until they finish setup.
	if u.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(*u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.touchLastLogin(ctx, u.ID)
	return u, nil
}

func (s *service) RequestMagicLink(ctx context.Context, email, redirectTo string) error {
	return s.sendLoginLink(ctx, email, PurposeMagicLink, redirectTo)
}

func (s *service) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return s.sendLoginLink(ctx, email, PurposeRecovery, redirectTo)
}

func (s *service) sendLoginLink(ctx context.Context, email, purpose, redirectTo string) error {
	cleanEmail := NormalizeEmail(email)
	if cleanEmail == "" {
		return ErrEmailRequired
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("login link requested for unknown email", zap.String("purpose", purpose))
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}

	// Failures past this point are logged only, so the response for a known
	// email matches the one for an unknown email.
	link, err := s.issueToken(ctx, u.ID, purpose, redirectTo, s.settings.LoginTokenTTL)
	if err != nil {
		s.logger.Error("failed to issue login link",
			zap.String("purpose", purpose), zap.String("user_id", u.ID), zap.Error(err))
		return nil
	}

	msg := mailer.MagicLinkMessage(u.Email, link)
	if purpose == PurposeRecovery {
		msg = mailer.PasswordResetMessage(u.Email, link)
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send login link email",
			zap.String("purpose", purpose), zap.String("user_id", u.ID), zap.Error(err))
	}
	return nil
}

func (s *service) SendInvite(ctx context.Context, u *User, orgName, role, redirectTo string) error {
	link, err := s.issueToken(ctx, u.ID, PurposeInvite, redirectTo, s.settings.InviteTokenTTL)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, mailer.InviteMessage(u.Email, orgName, role, link)); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

func (s *service) issueToken(ctx context.Context, userID, purpose, redirectTo string, ttl time.Duration) (string, error) {
	raw, hash, err := auth.NewOneTimeToken()
	if err != nil {
		return "", err
	}

	var redirect *string
	if r := strings.TrimSpace(redirectTo); r != "" {
		redirect = &r
	}

	if err := s.repo.CreateLoginToken(ctx, hash, userID, purpose, redirect, s.now().Add(ttl)); err != nil {
		return "", err
	}
	return mailer.Link(s.settings.SiteURL, raw, purpose, redirectTo), nil
}

func (s *service) ExchangeCode(ctx context.Context, code string) (*User, *LoginToken, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil, ErrInvalidCode
	}

	token, err := s.repo.ConsumeLoginToken(ctx, auth.HashOneTimeToken(code))
	if err != nil {
		return nil, nil, err
	}

	u, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, ErrInactiveUser
	}

	s.touchLastLogin(ctx, u.ID)
	return u, token, nil
}

func (s *service) UpdatePassword(ctx context.Context, userID, password, confirm string) error {
	if len(password) < s.settings.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.SetPassword(ctx, userID, hash)
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	cleanEmail := NormalizeEmail(email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}
	return s.repo.GetByEmail(ctx, cleanEmail)
}

func (s *service) EnsureUser(ctx context.Context, email string) (*User, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	u := &User{Email: NormalizeEmail(email), IsActive: true}
	if err := s.repo.Create(ctx, u); err != nil {
		// Lost a race with a concurrent create; the row exists now.
		if errors.Is(err, ErrEmailAlreadyUsed) {
			return s.repo.GetByEmail(ctx, u.Email)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) RevokeSession(ctx context.Context, jti string, until time.Time) error {
	if jti == "" {
		return nil
	}
	if until.IsZero() {
		until = s.now().Add(24 * time.Hour)
	}
	return s.repo.RevokeToken(ctx, jti, until)
}

func (s *service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.repo.IsRevoked(ctx, jti)
}

func (s *service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredTokens(ctx, s.now())
}

// touchLastLogin is best effort; a failure does not fail the sign-in.
func (s *service) touchLastLogin(ctx context.Context, id string) {
	if err := s.repo.UpdateLastLogin(ctx, id, s.now()); err != nil {
		s.logger.Warn("failed to update last_login_at", zap.String("user_id", id), zap.Error(err))
	}
}

// NormalizeEmail trims spaces and lowercases the email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
