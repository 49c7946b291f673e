package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"coursebook/internal/model"
)

// TokenRepository defines auth token persistence operations.
type TokenRepository interface {
	Create(ctx context.Context, token *model.AuthToken) error
	FindByToken(ctx context.Context, token string) (*model.AuthToken, error)
	FindByTokenAndType(ctx context.Context, token string, tokenType model.TokenType) (*model.AuthToken, error)
	MarkUsed(ctx context.Context, token string) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.AuthToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) FindByToken(ctx context.Context, token string) (*model.AuthToken, error) {
	var t model.AuthToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) FindByTokenAndType(ctx context.Context, token string, tokenType model.TokenType) (*model.AuthToken, error) {
	var t model.AuthToken
	if err := r.db.WithContext(ctx).
		Where("token = ? AND type = ?", token, tokenType).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed is an idempotent one-way transition; marking an already-used
// token again is a no-op.
func (r *tokenRepository) MarkUsed(ctx context.Context, token string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.AuthToken{}).
		Where("token = ? AND used = ?", token, false).
		Updates(map[string]interface{}{"used": true, "used_at": now}).Error
}
