package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/model"
	"coursebook/internal/repository"
)

const (
	// VerificationTokenTTL is how long email-verification tokens stay valid.
	VerificationTokenTTL = 24 * time.Hour
	// PasswordResetTokenTTL is how long password-reset tokens stay valid.
	PasswordResetTokenTTL = 1 * time.Hour
)

// Token verification failure reasons. Each maps to a distinct user-facing
// message; expired is never reported as used and vice versa.
const (
	TokenReasonNotFound = "not_found"
	TokenReasonUsed     = "used"
	TokenReasonExpired  = "expired"
)

// TokenVerification is the structured outcome of a token check. Verification
// leaves the token unconsumed; callers apply their side effect and then call
// MarkUsed.
type TokenVerification struct {
	Valid   bool      `json:"valid"`
	Reason  string    `json:"reason,omitempty"`
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"user_id,omitempty"`
}

// TokenService issues and verifies single-use email tokens.
type TokenService interface {
	CreateVerificationToken(ctx context.Context, userID uuid.UUID) (string, error)
	CreatePasswordResetToken(ctx context.Context, userID uuid.UUID) (string, error)
	Verify(ctx context.Context, token string, tokenType model.TokenType) (*TokenVerification, error)
	MarkUsed(ctx context.Context, token string) error
}

type tokenService struct {
	repo repository.TokenRepository
}

// NewTokenService creates a new token service.
func NewTokenService(repo repository.TokenRepository) TokenService {
	return &tokenService{repo: repo}
}

// generateToken returns 32 bytes of cryptographic randomness, hex encoded.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *tokenService) create(ctx context.Context, userID uuid.UUID, tokenType model.TokenType, ttl time.Duration) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	record := &model.AuthToken{
		Token:     token,
		UserID:    userID,
		Type:      tokenType,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("store %s token: %w", tokenType, err)
	}
	return token, nil
}

// CreateVerificationToken issues a 24h single-use email-verification token.
func (s *tokenService) CreateVerificationToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.create(ctx, userID, model.TokenTypeEmailVerification, VerificationTokenTTL)
}

// CreatePasswordResetToken issues a 1h single-use password-reset token.
func (s *tokenService) CreatePasswordResetToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.create(ctx, userID, model.TokenTypePasswordReset, PasswordResetTokenTTL)
}

// Verify checks a token of the given type. Business failures come back as a
// non-valid result with a distinct reason; only infrastructure errors are
// returned as errors.
func (s *tokenService) Verify(ctx context.Context, token string, tokenType model.TokenType) (*TokenVerification, error) {
	record, err := s.repo.FindByTokenAndType(ctx, token, tokenType)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &TokenVerification{
				Valid:   false,
				Reason:  TokenReasonNotFound,
				Message: "Token not found",
			}, nil
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	if record.Used {
		return &TokenVerification{
			Valid:   false,
			Reason:  TokenReasonUsed,
			Message: "Token has already been used",
		}, nil
	}

	if time.Now().After(record.ExpiresAt) {
		return &TokenVerification{
			Valid:   false,
			Reason:  TokenReasonExpired,
			Message: "Token has expired",
		}, nil
	}

	return &TokenVerification{
		Valid:   true,
		Message: "Token valid",
		UserID:  record.UserID,
	}, nil
}

// MarkUsed consumes a token. Idempotent: a second call is a no-op.
func (s *tokenService) MarkUsed(ctx context.Context, token string) error {
	return s.repo.MarkUsed(ctx, token)
}
