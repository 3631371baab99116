package account_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/logging"
	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
	"github.com/Shailesh2302/CipherChat/internal/store/memory"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendVerification(ctx context.Context, email, username, code string) error {
	args := m.Called(ctx, email, username, code)
	return args.Error(0)
}

// countingStore records writes that the verification path may issue.
type countingStore struct {
	store.UserStore
	markCalls int32
}

func (c *countingStore) MarkVerified(ctx context.Context, username, code string, now time.Time) (bool, error) {
	atomic.AddInt32(&c.markCalls, 1)
	return c.UserStore.MarkVerified(ctx, username, code, now)
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	svc    *account.Service
	store  *memory.Store
	users  *countingStore
	sender *mockSender
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	f := &fixture{
		store:  mem,
		users:  &countingStore{UserStore: mem},
		sender: &mockSender{},
		clock:  &clock{now: time.Now().UTC()},
	}
	f.svc = account.NewService(f.users, account.NewCodeGenerator(time.Hour), f.sender, logging.Discard(),
		account.WithClock(f.clock.Now))
	return f
}

// pending stores an unverified user whose code expires one hour after the fixture clock.
func (f *fixture) pending(t *testing.T, username, code string) *models.User {
	t.Helper()
	u := &models.User{
		Username:            username,
		Email:               username + "@example.com",
		PasswordHash:        "$2a$10$placeholder",
		VerifyCode:          code,
		VerifyCodeExpiry:    f.clock.now.Add(time.Hour),
		IsAcceptingMessages: true,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) verified(t *testing.T, username string) *models.User {
	t.Helper()
	u := f.pending(t, username, "111111")
	ok, err := f.store.MarkVerified(context.Background(), username, "111111", f.clock.now)
	require.NoError(t, err)
	require.True(t, ok)
	return u
}
