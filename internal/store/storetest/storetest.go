// Package storetest holds the behavioral suite every store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
)

// Run exercises s against the store contracts. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("create_and_find", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("duplicates", func(t *testing.T) { testDuplicates(t, newStore(t)) })
	t.Run("mark_verified", func(t *testing.T) { testMarkVerified(t, newStore(t)) })
	t.Run("update_pending", func(t *testing.T) { testUpdatePending(t, newStore(t)) })
	t.Run("replace_pending", func(t *testing.T) { testReplacePending(t, newStore(t)) })
	t.Run("accepting_toggle", func(t *testing.T) { testAccepting(t, newStore(t)) })
	t.Run("messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("purge_unverified", func(t *testing.T) { testPurge(t, newStore(t)) })
	t.Run("identities", func(t *testing.T) { testIdentities(t, newStore(t)) })
}

// NewUser builds an unverified user whose code expires one hour from now.
func NewUser(username string) *models.User {
	return &models.User{
		Username:            username,
		Email:               username + "@example.com",
		PasswordHash:        "$2a$10$hash",
		VerifyCode:          "482913",
		VerifyCodeExpiry:    time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond),
		IsAcceptingMessages: true,
	}
}

func testCreateAndFind(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	byName, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.False(t, byName.IsVerified)
	assert.True(t, byName.IsAcceptingMessages)
	assert.Equal(t, "482913", byName.VerifyCode)

	byEmail, err := s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = s.FindUserByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, store.ErrNotFound, "usernames match case-sensitively")

	_, err = s.FindUserByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicates(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("bob")))

	sameName := NewUser("bob")
	sameName.Email = "other@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, sameName), store.ErrDuplicate)

	sameEmail := NewUser("robert")
	sameEmail.Email = "bob@example.com"
	assert.ErrorIs(t, s.CreateUser(ctx, sameEmail), store.ErrDuplicate)
}

func testMarkVerified(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("carol")
	require.NoError(t, s.CreateUser(ctx, u))
	now := time.Now()

	ok, err := s.MarkVerified(ctx, "carol", "000000", now)
	require.NoError(t, err)
	assert.False(t, ok, "wrong code")

	ok, err = s.MarkVerified(ctx, "carol", "482913", u.VerifyCodeExpiry)
	require.NoError(t, err)
	assert.False(t, ok, "expiry instant is expired")

	ok, err = s.MarkVerified(ctx, "carol", "482913", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkVerified(ctx, "carol", "482913", now)
	require.NoError(t, err)
	assert.False(t, ok, "code is consumed")

	got, err := s.FindUserByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	ok, err = s.MarkVerified(ctx, "nobody", "482913", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testUpdatePending(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("dave")
	require.NoError(t, s.CreateUser(ctx, u))

	u.VerifyCode = "111111"
	u.PasswordHash = "$2a$10$other"
	require.NoError(t, s.UpdatePendingUser(ctx, u))

	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "111111", got.VerifyCode)
	assert.Equal(t, "$2a$10$other", got.PasswordHash)

	ok, err := s.MarkVerified(ctx, "dave", "111111", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	u.VerifyCode = "222222"
	assert.ErrorIs(t, s.UpdatePendingUser(ctx, u), store.ErrNotFound, "verified users are not pending")
}

func testReplacePending(t *testing.T, s store.Store) {
	ctx := context.Background()
	stale := NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, stale))
	other := NewUser("bob")
	require.NoError(t, s.CreateUser(ctx, other))

	clash := NewUser("alice")
	clash.Email = "bob@example.com"
	assert.ErrorIs(t, s.ReplacePendingUser(ctx, stale.ID, clash), store.ErrDuplicate)

	kept, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err, "failed replace keeps the stale record")
	assert.Equal(t, stale.ID, kept.ID)
	assert.Equal(t, "alice@example.com", kept.Email)

	fresh := NewUser("alice")
	fresh.Email = "new-alice@example.com"
	require.NoError(t, s.ReplacePendingUser(ctx, stale.ID, fresh))
	require.NotEmpty(t, fresh.ID)

	holder, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, holder.ID)
	assert.Equal(t, "new-alice@example.com", holder.Email)
	_, err = s.FindUserByID(ctx, stale.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Rename an existing pending record onto the name held by another one.
	bob, err := s.FindUserByID(ctx, other.ID)
	require.NoError(t, err)
	bob.Username = "alice"
	bob.VerifyCode = "135790"
	require.NoError(t, s.ReplacePendingUser(ctx, fresh.ID, bob))

	holder, err = s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, other.ID, holder.ID)
	assert.Equal(t, "bob@example.com", holder.Email)
	assert.Equal(t, "135790", holder.VerifyCode)

	assert.ErrorIs(t, s.ReplacePendingUser(ctx, fresh.ID, NewUser("carol")), store.ErrNotFound)

	ok, err := s.MarkVerified(ctx, "alice", "135790", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.ErrorIs(t, s.ReplacePendingUser(ctx, other.ID, NewUser("alice")), store.ErrNotFound,
		"verified users are never replaced")
}

func testAccepting(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("erin")
	require.NoError(t, s.CreateUser(ctx, u))

	updated, err := s.SetAcceptingMessages(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAcceptingMessages)

	updated, err = s.SetAcceptingMessages(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsAcceptingMessages)

	_, err = s.SetAcceptingMessages(ctx, "00000000-0000-0000-0000-000000000000", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testMessages(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("frank")
	require.NoError(t, s.CreateUser(ctx, u))

	msgs, err := s.ListMessages(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := &models.Message{Content: "first message", CreatedAt: base.Add(-time.Minute)}
	second := &models.Message{Content: "second message", CreatedAt: base}
	require.NoError(t, s.AppendMessage(ctx, u.ID, first))
	require.NoError(t, s.AppendMessage(ctx, u.ID, second))
	require.NotEmpty(t, first.ID)

	msgs, err = s.ListMessages(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second message", msgs[0].Content)
	assert.Equal(t, "first message", msgs[1].Content)

	require.NoError(t, s.DeleteMessage(ctx, u.ID, first.ID))
	assert.ErrorIs(t, s.DeleteMessage(ctx, u.ID, first.ID), store.ErrNotFound)

	msgs, err = s.ListMessages(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, second.ID, msgs[0].ID)

	other := NewUser("grace")
	require.NoError(t, s.CreateUser(ctx, other))
	assert.ErrorIs(t, s.DeleteMessage(ctx, other.ID, second.ID), store.ErrNotFound, "messages are owner scoped")
}

func testPurge(t *testing.T, s store.Store) {
	ctx := context.Background()
	stale := NewUser("stale")
	stale.VerifyCodeExpiry = time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.CreateUser(ctx, stale))

	fresh := NewUser("fresh")
	require.NoError(t, s.CreateUser(ctx, fresh))

	verified := NewUser("verified")
	verified.VerifyCodeExpiry = time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.CreateUser(ctx, verified))
	ok, err := s.MarkVerified(ctx, "verified", verified.VerifyCode, verified.VerifyCodeExpiry.Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	n, err := s.DeleteUnverifiedBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.FindUserByUsername(ctx, "stale")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindUserByUsername(ctx, "fresh")
	assert.NoError(t, err)
	_, err = s.FindUserByUsername(ctx, "verified")
	assert.NoError(t, err)
}

func testIdentities(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("heidi")
	require.NoError(t, s.CreateUser(ctx, u))

	id := &models.AuthIdentity{Provider: "google", ProviderUserID: "g-1", AccessToken: "sealed-1"}
	require.NoError(t, s.UpsertIdentity(ctx, u.ID, id))

	again := &models.AuthIdentity{Provider: "google", ProviderUserID: "g-1", AccessToken: "sealed-2"}
	require.NoError(t, s.UpsertIdentity(ctx, u.ID, again))

	assert.ErrorIs(t, s.UpsertIdentity(ctx, "00000000-0000-0000-0000-000000000000", id), store.ErrNotFound)
}
