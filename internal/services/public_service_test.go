package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProjectsOnlyVisitorSafeFields(t *testing.T) {
	store := storetest.NewMemoryStore()
	svc := NewPublicService(store, store)
	jane := seedAccount(t, store, "jane", models.RoleUser, true)

	page, err := svc.Resolve(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, models.PublicUser{Name: "jane", Username: "jane"}, page.User)
	assert.Equal(t, jane.ID, page.Portfolio.User)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "hashed")
	assert.NotContains(t, body, "verificationCode")
	assert.NotContains(t, body, jane.Email)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, map[string]interface{}{"name": "jane", "username": "jane"}, decoded["user"])
	assert.Equal(t, models.DefaultAboutTitle, decoded["aboutTitle"])
}

func TestResolveMisses(t *testing.T) {
	store := storetest.NewMemoryStore()
	svc := NewPublicService(store, store)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "ghost")
	assert.True(t, storetest.IsNotFound(err))

	_, err = svc.Resolve(ctx, " ")
	assert.True(t, storetest.IsNotFound(err))

	// an account whose portfolio is gone resolves to nothing as well
	orphan := seedAccount(t, store, "orphan", models.RoleUser, true)
	require.NoError(t, store.DeletePortfolio(ctx, orphan.ID))
	_, err = svc.Resolve(ctx, "orphan")
	assert.True(t, storetest.IsNotFound(err))

	// usernames match exactly
	seedAccount(t, store, "Jane", models.RoleUser, true)
	_, err = svc.Resolve(ctx, "jane")
	assert.True(t, storetest.IsNotFound(err))
}
