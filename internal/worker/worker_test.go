package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shailesh2302/CipherChat/internal/logging"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendVerification(ctx context.Context, email, username, code string) error {
	return m.Called(ctx, email, username, code).Error(0)
}

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) PurgeUnverified(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

func TestHandleSendVerification(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("SendVerification", mock.Anything, "alice@example.com", "alice", "482913").Return(nil).Once()
	handler := handleSendVerification(logging.Discard(), mailer)

	task, err := NewVerificationTask("alice@example.com", "alice", "482913")
	require.NoError(t, err)
	assert.Equal(t, TaskSendVerification, task.Type())

	require.NoError(t, handler(context.Background(), task))
	mailer.AssertExpectations(t)
}

func TestHandleSendVerification_BadPayloadSkipsRetry(t *testing.T) {
	handler := handleSendVerification(logging.Discard(), &mockMailer{})

	err := handler(context.Background(), asynq.NewTask(TaskSendVerification, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = handler(context.Background(), asynq.NewTask(TaskSendVerification, []byte(`{"username":"alice"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSendVerification_SMTPFailureRetries(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("SendVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("421 try later"))
	handler := handleSendVerification(logging.Discard(), mailer)

	task, err := NewVerificationTask("alice@example.com", "alice", "482913")
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandlePurgeUnverified(t *testing.T) {
	purger := &mockPurger{}
	purger.On("PurgeUnverified", mock.Anything, 24*time.Hour).Return(int64(2), nil).Once()

	handler := handlePurgeUnverified(logging.Discard(), purger, 24*time.Hour)
	require.NoError(t, handler(context.Background(), asynq.NewTask(TaskPurgeUnverified, nil)))
	purger.AssertExpectations(t)

	failing := &mockPurger{}
	failing.On("PurgeUnverified", mock.Anything, time.Hour).Return(int64(0), errors.New("db down"))
	assert.Error(t, handlePurgeUnverified(logging.Discard(), failing, time.Hour)(context.Background(), asynq.NewTask(TaskPurgeUnverified, nil)))
}

func TestNewMux_RoutesTasks(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("SendVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	purger := &mockPurger{}
	purger.On("PurgeUnverified", mock.Anything, time.Hour).Return(int64(0), nil)

	mux := NewMux(Deps{Mailer: mailer, Purger: purger, Logger: logging.Discard()}, time.Hour)

	task, err := NewVerificationTask("alice@example.com", "alice", "482913")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskPurgeUnverified, nil)))

	mailer.AssertNumberOfCalls(t, "SendVerification", 1)
	purger.AssertNumberOfCalls(t, "PurgeUnverified", 1)
}
