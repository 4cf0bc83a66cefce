package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/metao1/online-store-go/pkg/events"
)

// DLTSuffix is appended to a topic name to form its dead-letter topic.
const DLTSuffix = ".dlt"

// Handler processes one decoded envelope. A nil return acknowledges the
// message; an error triggers the bounded retry and finally the DLT.
type Handler func(ctx context.Context, env events.Envelope) error

// Consumer reads one topic in a consumer group and drives a Handler with
// bounded retries. Messages that exhaust their retry budget are forwarded to
// <topic>.dlt and acknowledged so the partition keeps moving.
type Consumer struct {
	Client     *Client
	Topic      string
	GroupID    string
	Logger     *zap.Logger
	MaxRetries int
	Backoff    time.Duration
}

func (c *Consumer) Run(ctx context.Context, handle Handler) {
	if !c.Client.Enabled() {
		c.Logger.Warn("kafka disabled, consumer not started", zap.String("topic", c.Topic))
		return
	}
	retries := c.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	reader := c.Client.NewReader(c.Topic, c.GroupID)
	defer reader.Close()
	dlt := c.Client.NewWriter(c.Topic + DLTSuffix)
	defer dlt.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			c.Logger.Warn("kafka read failed", zap.String("topic", c.Topic), zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}

		var env events.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.Logger.Warn("envelope decode failed, dead-lettering",
				zap.String("topic", c.Topic), zap.Error(err))
			c.deadLetter(ctx, dlt, msg)
			continue
		}
		if env.EventID == "" {
			continue
		}

		if err := c.handleWithRetry(ctx, handle, env, retries, backoff); err != nil {
			c.Logger.Error("handler exhausted retries, dead-lettering",
				zap.String("topic", c.Topic),
				zap.String("event_id", env.EventID),
				zap.String("type", env.Type),
				zap.Error(err))
			c.deadLetter(ctx, dlt, msg)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handle Handler, env events.Envelope, retries int, backoff time.Duration) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff * time.Duration(attempt)):
			}
		}
		if err = handle(ctx, env); err == nil {
			return nil
		}
		c.Logger.Warn("handler failed",
			zap.String("event_id", env.EventID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return err
}

func (c *Consumer) deadLetter(ctx context.Context, dlt *kafka.Writer, msg kafka.Message) {
	if err := dlt.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value, Time: time.Now().UTC()}); err != nil {
		c.Logger.Error("dead-letter publish failed", zap.String("topic", c.Topic+DLTSuffix), zap.Error(err))
	}
}
