package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventHandler processes one decoded event. A returned error leaves the
// entry pending so it is redelivered.
type EventHandler func(ctx context.Context, evt MessageReceived) error

// EventConsumer consumes message events from Redis Streams
type EventConsumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
	logger       *slog.Logger
}

// NewEventConsumer creates the consumer and its group if needed.
func NewEventConsumer(ctx context.Context, redisURL, consumerName string, logger *slog.Logger) (*EventConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	client := redis.NewClient(opts)

	// "$" starts a new group at the stream tail; older events are not replayed.
	err = client.XGroupCreateMkStream(ctx, StreamMessagesReceived, GroupNotifiers, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &EventConsumer{
		rdb:          client,
		groupName:    GroupNotifiers,
		consumerName: consumerName,
		logger:       logger,
	}, nil
}

// Consume runs a blocking loop until ctx is cancelled.
func (c *EventConsumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamMessagesReceived, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Blocking reads return a timeout when no entries arrive
			// within the Block duration.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			c.logger.Error("Failed to read from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.process(ctx, message, handler)
			}
		}
	}
}

func (c *EventConsumer) process(ctx context.Context, message redis.XMessage, handler EventHandler) {
	evt, err := DecodeEvent(message.Values)
	if err != nil {
		// Undecodable entries would be redelivered forever; drop them.
		c.logger.Error("Invalid stream entry", "error", err, "message_id", message.ID)
		c.ack(ctx, message.ID)
		return
	}

	if err := handler(ctx, evt); err != nil {
		c.logger.Error("Handler failed", "error", err, "message_id", evt.MessageID)
		return
	}
	c.ack(ctx, message.ID)
}

func (c *EventConsumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, StreamMessagesReceived, c.groupName, id).Err(); err != nil {
		c.logger.Error("Failed to ACK message", "error", err, "message_id", id)
	}
}

// DecodeEvent extracts the JSON payload of a stream entry.
func DecodeEvent(values map[string]interface{}) (MessageReceived, error) {
	var evt MessageReceived

	payload, ok := values["payload"].(string)
	if !ok {
		return evt, errors.New("missing payload")
	}
	if version, ok := values["schema_version"].(string); ok && version != SchemaVersionV1 {
		return evt, fmt.Errorf("unsupported schema version %q", version)
	}
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return evt, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return evt, nil
}

// Close closes the Redis client connection
func (c *EventConsumer) Close() error {
	return c.rdb.Close()
}

// StartEventConsumer starts the consumer in a background goroutine and
// returns a stop function
func StartEventConsumer(redisURL, consumerName string, handler EventHandler, logger *slog.Logger) (stop func(), err error) {
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := NewEventConsumer(ctx, redisURL, consumerName, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumer stopped with error", "error", err)
		}
	}()

	logger.Info("Event consumer started", "stream", StreamMessagesReceived, "consumer", consumerName)

	return func() {
		cancel()
		<-done
		_ = consumer.Close()
	}, nil
}
