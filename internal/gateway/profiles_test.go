package gateway

import (
	"context"
	"testing"

	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUpdateProfileValidation(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	tests := []struct {
		in  models.ProfileInput
		msg string
	}{
		{models.ProfileInput{Username: "ab"}, "Username must be at least 3 characters long"},
		{models.ProfileInput{Username: "bad name!"}, "Username can only contain letters, numbers, underscores, and hyphens"},
		{models.ProfileInput{Email: "nope"}, "Email must be a valid email address"},
	}
	for _, tt := range tests {
		_, err := g.UpdateProfile(ctx, alice, tt.in)
		appErr := requireStatus(t, err, 400)
		assert.Equal(t, tt.msg, appErr.Message)
	}

	_, err := g.GetProfile(ctx, alice)
	requireStatus(t, err, 404)

	_, err = g.UpdateProfile(ctx, "", models.ProfileInput{Username: "alice"})
	requireStatus(t, err, 401)
}

func TestUpdateProfileUpsertAndUniqueness(t *testing.T) {
	cache := newMemCache()
	g := newTestGateway(t, WithCache(cache))
	ctx := context.Background()

	p, err := g.UpdateProfile(ctx, alice, models.ProfileInput{Username: " alice_1 ", Email: "Alice@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice_1", *p.Username)
	assert.Equal(t, "alice@example.com", *p.Email)

	got, err := g.GetProfile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice_1", *got.Username)
	assert.True(t, cache.has(profileKey(alice)))

	_, err = g.UpdateProfile(ctx, bob, models.ProfileInput{Username: "alice_1"})
	appErr := requireStatus(t, err, 409)
	assert.Equal(t, "Username is already taken", appErr.Message)

	_, err = g.UpdateProfile(ctx, bob, models.ProfileInput{Email: "alice@example.com"})
	requireStatus(t, err, 409)

	p, err = g.UpdateProfile(ctx, alice, models.ProfileInput{Username: "alice-2"})
	require.NoError(t, err)
	assert.Equal(t, "alice-2", *p.Username)
	assert.Nil(t, p.Email)
	assert.False(t, cache.has(profileKey(alice)))

	_, err = g.UpdateProfile(ctx, bob, models.ProfileInput{Username: "alice_1"})
	assert.NoError(t, err)

	var count int64
	require.NoError(t, g.DB.Model(&models.UserProfile{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUpdateProfileConcurrentClaimIsConflict(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	// another wallet takes the username between the uniqueness check and the insert
	claimed := false
	err := g.DB.Callback().Create().Before("gorm:create").Register("test:rival_claim", func(tx *gorm.DB) {
		if claimed || tx.Statement.Table != "user_profiles" {
			return
		}
		claimed = true
		tx.AddError(tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO user_profiles (wallet_address, username) VALUES (?, ?)", bob, "alice_1").Error)
	})
	require.NoError(t, err)

	_, err = g.UpdateProfile(ctx, alice, models.ProfileInput{Username: "alice_1"})
	appErr := requireStatus(t, err, 409)
	assert.Equal(t, "Username or email is already taken", appErr.Message)
	assert.True(t, claimed)
}
