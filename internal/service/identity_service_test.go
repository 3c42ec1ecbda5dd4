package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/slotswapper/internal/auth"
	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/model"
)

func TestIdentityService_RegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := f.core.Identity

	u, token, err := svc.RegisterUser(f.ctx, "Alice", "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	require.NotEmpty(t, token)

	id, err := svc.Authenticate(f.ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, "Alice", id.Name)

	var stored model.User
	require.NoError(t, f.db.First(&stored, "id = ?", u.ID).Error)
	assert.NotEqual(t, token, stored.TokenHash, "token must be stored hashed")
}

func TestIdentityService_RegisterExistingRotatesToken(t *testing.T) {
	f := newFixture(t)
	svc := f.core.Identity

	first, oldToken, err := svc.RegisterUser(f.ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	second, newToken, err := svc.RegisterUser(f.ctx, "Alice B.", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice B.", second.Name)

	_, err = svc.Authenticate(f.ctx, oldToken)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	_, err = svc.Authenticate(f.ctx, newToken)
	assert.NoError(t, err)
}

func TestIdentityService_IssueToken(t *testing.T) {
	f := newFixture(t)
	svc := f.core.Identity

	_, _, err := svc.RegisterUser(f.ctx, "Bob", "bob@example.com")
	require.NoError(t, err)

	token, err := svc.IssueToken(f.ctx, "bob@example.com")
	require.NoError(t, err)
	id, err := svc.Authenticate(f.ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Bob", id.Name)

	_, err = svc.IssueToken(f.ctx, "nobody@example.com")
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestIdentityService_Validation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.core.Identity.RegisterUser(f.ctx, "", "a@example.com")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	_, _, err = f.core.Identity.RegisterUser(f.ctx, "A", "not-an-email")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestIdentityService_AuthenticateRejects(t *testing.T) {
	f := newFixture(t)
	svc := f.core.Identity

	_, err := svc.Authenticate(f.ctx, "")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	_, err = svc.Authenticate(f.ctx, "unknown")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	u, token, err := svc.RegisterUser(f.ctx, "Eve", "eve@example.com")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	_, err = svc.Authenticate(f.ctx, token)
	assert.ErrorIs(t, err, auth.ErrUserInactive)
}
