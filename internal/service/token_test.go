package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-api/backend/internal/models"
)

func TestIssueTokenIsStablePerUser(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user, err := s.users.CreateUser(ctx, "a@x.com", "secret123", "")
	require.NoError(t, err)

	first, err := s.tokens.IssueToken(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Len(t, first, 40)

	second, err := s.tokens.IssueToken(ctx, "A@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	resolved, err := s.tokens.ResolveToken(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestIssueTokenBadCredentials(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	_, err := s.users.CreateUser(ctx, "a@x.com", "secret123", "")
	require.NoError(t, err)

	token, err := s.tokens.IssueToken(ctx, "a@x.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, IsAuthentication(err))
	assert.Empty(t, token)

	var count int64
	require.NoError(t, s.db.Model(&models.Token{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResolveToken(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user, err := s.users.CreateUser(ctx, "a@x.com", "secret123", "")
	require.NoError(t, err)
	key, err := s.tokens.IssueToken(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = s.tokens.ResolveToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.tokens.ResolveToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidToken)

	user.IsActive = false
	require.NoError(t, s.db.Save(user).Error)
	_, err = s.tokens.ResolveToken(ctx, key)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeToken(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user, err := s.users.CreateUser(ctx, "a@x.com", "secret123", "")
	require.NoError(t, err)
	key, err := s.tokens.IssueToken(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, s.tokens.RevokeToken(ctx, user.ID))
	_, err = s.tokens.ResolveToken(ctx, key)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// revoking again is a no-op
	assert.NoError(t, s.tokens.RevokeToken(ctx, user.ID))

	fresh, err := s.tokens.IssueToken(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, key, fresh)
}
