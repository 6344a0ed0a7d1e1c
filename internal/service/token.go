package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
)

// tokenBytes of randomness give a 40 character hex key
const tokenBytes = 20

// TokenService exchanges credentials for opaque API tokens and resolves
// them back to users.
type TokenService struct {
	users  *UserService
	tokens repository.TokenRepository
	log    *zap.Logger
}

// NewTokenService creates a TokenService.
func NewTokenService(users *UserService, tokens repository.TokenRepository, log *zap.Logger) *TokenService {
	return &TokenService{users: users, tokens: tokens, log: log}
}

func generateKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueToken authenticates the credentials and returns the user's token,
// creating it on first use. Later calls return the same key until it is
// revoked.
func (s *TokenService) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.GetByUserID(ctx, user.ID)
	if err == nil {
		return token.Key, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	key, err := generateKey()
	if err != nil {
		return "", err
	}
	token = &models.Token{Key: key, UserID: user.ID}
	if err := s.tokens.Create(ctx, token); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return "", err
		}
		// A concurrent login created it first
		existing, err := s.tokens.GetByUserID(ctx, user.ID)
		if err != nil {
			return "", err
		}
		return existing.Key, nil
	}

	s.log.Info("token issued", zap.Uint("user_id", user.ID))
	return token.Key, nil
}

// ResolveToken returns the active user owning key or ErrInvalidToken.
func (s *TokenService) ResolveToken(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}
	token, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !token.User.IsActive {
		return nil, ErrInvalidToken
	}
	return &token.User, nil
}

// RevokeToken deletes the user's token. The next login issues a new key.
func (s *TokenService) RevokeToken(ctx context.Context, userID uint) error {
	err := s.tokens.DeleteByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err == nil {
		s.log.Info("token revoked", zap.Uint("user_id", userID))
	}
	return err
}
