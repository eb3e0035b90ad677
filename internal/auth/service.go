package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/otp"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultOTPTTL = 10 * time.Minute

var (
	ErrInvalidInput       = errors.New("username, email and password are required")
	ErrEmailTaken         = errors.New("Email already exists")
	ErrUsernameTaken      = errors.New("Username already taken")
	ErrOTPNotFound        = errors.New("No OTP found or it has expired")
	ErrOTPInvalid         = errors.New("Invalid or expired OTP")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

// Users is the part of storage.Storage the auth flow needs.
type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// CodeSender delivers a registration code to an email address.
type CodeSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

type Service struct {
	users      Users
	codes      otp.Store
	sender     CodeSender
	tokens     *Tokens
	otpTTL     time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewService(users Users, codes otp.Store, sender CodeSender, tokens *Tokens, otpTTL time.Duration) *Service {
	if otpTTL <= 0 {
		otpTTL = DefaultOTPTTL
	}
	return &Service{
		users:      users,
		codes:      codes,
		sender:     sender,
		tokens:     tokens,
		otpTTL:     otpTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Register checks that the email and username are free, then stores and
// mails a one-time code. The account is created by VerifyOTP.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}

	if err := s.checkFree(ctx, username, email); err != nil {
		return err
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	entry := otp.Entry{Code: code, ExpiresAt: s.now().Add(s.otpTTL)}
	if err := s.codes.Put(ctx, email, entry); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if err := s.sender.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}
	log.Printf("[auth] otp sent to %s", email)
	return nil
}

// VerifyOTP completes a registration and returns a session token.
func (s *Service) VerifyOTP(ctx context.Context, email, code, username, password string) (string, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	entry, err := s.codes.Get(ctx, email)
	if errors.Is(err, otp.ErrNotFound) {
		return "", ErrOTPNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load otp: %w", err)
	}

	if !entry.Matches(code) || entry.Expired(s.now()) {
		if err := s.codes.Delete(ctx, email); err != nil {
			log.Printf("[auth] failed to drop otp for %s: %v", email, err)
		}
		return "", ErrOTPInvalid
	}
	if username == "" || password == "" {
		return "", ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			if err := s.checkFree(ctx, username, email); err != nil {
				return "", err
			}
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		log.Printf("[auth] failed to drop otp for %s: %v", email, err)
	}
	log.Printf("[auth] user registered: %s", email)
	return s.tokens.Issue(user.ID)
}

// Login checks credentials and returns a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

func (s *Service) checkFree(ctx context.Context, username, email string) error {
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to check email: %w", err)
	}

	_, err = s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to check username: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
