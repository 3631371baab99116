package streams_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/logging"
	"github.com/Shailesh2302/CipherChat/internal/store/memory"
	"github.com/Shailesh2302/CipherChat/internal/store/storetest"
	"github.com/Shailesh2302/CipherChat/internal/streams"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendMessageNotice(ctx context.Context, email, username string) error {
	return m.Called(ctx, email, username).Error(0)
}

func TestHandleMessageReceived(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	verified := storetest.NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, verified))
	_, err := s.MarkVerified(ctx, "alice", verified.VerifyCode, time.Now())
	require.NoError(t, err)

	pending := storetest.NewUser("bob")
	require.NoError(t, s.CreateUser(ctx, pending))

	notifier := &mockNotifier{}
	notifier.On("SendMessageNotice", mock.Anything, "alice@example.com", "alice").Return(nil).Once()
	handle := streams.HandleMessageReceived(s, notifier, logging.Discard())

	require.NoError(t, handle(ctx, streams.MessageReceived{MessageID: "m1", UserID: verified.ID}))
	require.NoError(t, handle(ctx, streams.MessageReceived{MessageID: "m2", UserID: pending.ID}))
	require.NoError(t, handle(ctx, streams.MessageReceived{MessageID: "m3", UserID: "missing"}))

	notifier.AssertExpectations(t)
}

func TestHandleMessageReceived_NotifierFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	u := storetest.NewUser("alice")
	require.NoError(t, s.CreateUser(ctx, u))
	_, err := s.MarkVerified(ctx, "alice", u.VerifyCode, time.Now())
	require.NoError(t, err)

	notifier := &mockNotifier{}
	notifier.On("SendMessageNotice", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err = streams.HandleMessageReceived(s, notifier, logging.Discard())(ctx, streams.MessageReceived{UserID: u.ID})
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	evt := streams.MessageReceived{
		MessageID:  "m1",
		UserID:     "u1",
		Username:   "alice",
		ReceivedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	got, err := streams.DecodeEvent(map[string]interface{}{
		"payload":        string(payload),
		"schema_version": streams.SchemaVersionV1,
	})
	require.NoError(t, err)
	assert.Equal(t, evt, got)

	_, err = streams.DecodeEvent(map[string]interface{}{})
	assert.Error(t, err)

	_, err = streams.DecodeEvent(map[string]interface{}{"payload": "{", "schema_version": "v1"})
	assert.Error(t, err)

	_, err = streams.DecodeEvent(map[string]interface{}{"payload": string(payload), "schema_version": "v9"})
	assert.Error(t, err)
}
