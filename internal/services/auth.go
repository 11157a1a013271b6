package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultEmailDomain = "louisville.edu"
	defaultCodeTTL     = 15 * time.Minute
)

// AuthOptions tunes signup and verification
type AuthOptions struct {
	EmailDomain string
	CodeTTL     time.Duration
	BcryptCost  int
}

// Session is an issued credential together with the user it belongs to
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles signup, verification and signin
type AuthService struct {
	users  UserStore
	tokens *TokenIssuer
	codes  CodeSender
	opts   AuthOptions
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *TokenIssuer, codes CodeSender, opts AuthOptions) *AuthService {
	if opts.EmailDomain == "" {
		opts.EmailDomain = defaultEmailDomain
	}
	opts.EmailDomain = strings.TrimPrefix(opts.EmailDomain, "@")
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = defaultCodeTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		codes:  codes,
		opts:   opts,
		now:    time.Now,
	}
}

// EmailDomain returns the institution domain signups are restricted to
func (s *AuthService) EmailDomain() string {
	return s.opts.EmailDomain
}

// Signup creates an unverified account and sends it a verification code
func (s *AuthService) Signup(ctx context.Context, email, username, password string) error {
	email = normalizeEmail(email)
	if email == "" || username == "" || password == "" {
		return invalid("Email, username and password are required.")
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain != strings.ToLower(s.opts.EmailDomain) {
		return invalid(fmt.Sprintf("Use your @%s email.", s.opts.EmailDomain))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	vc := &models.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.opts.CodeTTL),
	}

	if err := s.users.CreateWithCode(ctx, user, vc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.codes.SendCode(ctx, user.Email, vc.Code, vc.ExpiresAt); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

// Verify consumes a verification code and signs the user in
func (s *AuthService) Verify(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, invalid("Email and code are required.")
	}

	userID, err := s.users.ConsumeCode(ctx, email, code, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load verified user: %w", err)
	}
	return s.newSession(user)
}

// Signin checks a password and issues a credential, verifying the account on first signin
func (s *AuthService) Signin(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified() {
		now := s.now()
		if err := s.users.MarkVerified(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("failed to mark user verified: %w", err)
		}
		user.VerifiedAt = &now
	}
	return s.newSession(user)
}

// Me returns the user behind an authenticated request, or nil if the account is gone
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ValidateToken exposes token validation to the auth guard
func (s *AuthService) ValidateToken(token string) (*Identity, error) {
	return s.tokens.Validate(token)
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// normalizeEmail folds an address to the form it is stored and looked up in
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
