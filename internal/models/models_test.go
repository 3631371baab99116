package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_CodeLive(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := &User{VerifyCodeExpiry: expiry}

	assert.True(t, u.CodeLive(expiry.Add(-time.Second)))
	assert.False(t, u.CodeLive(expiry), "expiry instant is already expired")
	assert.False(t, u.CodeLive(expiry.Add(time.Minute)))
}

func TestBeforeCreate_AssignsID(t *testing.T) {
	u := &User{}
	require.NoError(t, u.BeforeCreate(nil))
	assert.Len(t, u.ID, 36)

	m := &Message{ID: "fixed"}
	require.NoError(t, m.BeforeCreate(nil))
	assert.Equal(t, "fixed", m.ID)

	a := &AuthIdentity{}
	require.NoError(t, a.BeforeCreate(nil))
	assert.NotEmpty(t, a.ID)
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Now()
	msgs := []Message{
		{ID: "old", CreatedAt: base.Add(-time.Hour)},
		{ID: "new", CreatedAt: base},
		{ID: "mid", CreatedAt: base.Add(-time.Minute)},
	}

	SortNewestFirst(msgs)

	assert.Equal(t, []string{"new", "mid", "old"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}
