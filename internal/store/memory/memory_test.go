package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
	"github.com/Shailesh2302/CipherChat/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestMarkVerified_ConcurrentSingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := storetest.NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, u))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.MarkVerified(ctx, "alice", u.VerifyCode, time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestIdentities_Replace(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := storetest.NewUser("bob")
	require.NoError(t, s.CreateUser(ctx, u))

	require.NoError(t, s.UpsertIdentity(ctx, u.ID, &models.AuthIdentity{Provider: "google", ProviderUserID: "g", AccessToken: "a"}))
	require.NoError(t, s.UpsertIdentity(ctx, u.ID, &models.AuthIdentity{Provider: "google", ProviderUserID: "g", AccessToken: "b"}))

	ids := s.Identities(u.ID)
	require.Len(t, ids, 1)
	assert.Equal(t, "b", ids[0].AccessToken)
}

func TestFind_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := storetest.NewUser("carol")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.IsVerified = true

	again, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, again.IsVerified)
}
