package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskSendVerification = "email:verification"
	TaskPurgeUnverified  = "accounts:purge-unverified"
)

// VerificationPayload is the body of a TaskSendVerification task.
type VerificationPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Code     string `json:"code"`
}

// NewVerificationTask builds a verification email task. The code outlives
// its email only until the task completes; completed tasks are not retained.
func NewVerificationTask(email, username, code string) (*asynq.Task, error) {
	payload, err := json.Marshal(VerificationPayload{Email: email, Username: username, Code: code})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskSendVerification,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	), nil
}

// Queue enqueues background tasks.
type Queue struct {
	client *asynq.Client
}

// NewQueue connects an Asynq client to redisURL.
func NewQueue(redisURL string) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Queue{client: asynq.NewClient(opt)}, nil
}

// SendVerification queues the verification email instead of sending it inline.
func (q *Queue) SendVerification(ctx context.Context, email, username, code string) error {
	task, err := NewVerificationTask(email, username, code)
	if err != nil {
		return fmt.Errorf("failed to build verification task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue verification email: %w", err)
	}
	return nil
}

// Close closes the Asynq client connection gracefully.
func (q *Queue) Close() error {
	return q.client.Close()
}
