package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipe-api/backend/internal/models"
)

// TokenRepository persists API tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	// GetByKey loads the token together with its user.
	GetByKey(ctx context.Context, key string) (*models.Token, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Token, error)
	DeleteByUserID(ctx context.Context, userID uint) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a gorm-backed TokenRepository.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.Token) error {
	return wrapGormError("create token", r.db.WithContext(ctx).Omit("User").Create(token).Error)
}

func (r *tokenRepository) GetByKey(ctx context.Context, key string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).Preload("User").Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&token).Error
	if err != nil {
		return nil, wrapGormError("get token", err)
	}
	return &token, nil
}

func (r *tokenRepository) GetByUserID(ctx context.Context, userID uint) (*models.Token, error) {
	var token models.Token
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error; err != nil {
		return nil, wrapGormError("get token by user", err)
	}
	return &token, nil
}

func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Token{})
	if res.Error != nil {
		return wrapGormError("delete token", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
