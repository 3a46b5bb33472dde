package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventQuizStarted     = "quiz.started"
	EventQuizCompleted   = "quiz.completed"
	EventPaymentVerified = "payment.verified"
	EventPaymentFailed   = "payment.failed"
)

// Event is the envelope written to the events topic.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Emitter publishes domain events. Delivery is best effort: failures are
// logged and never surface to the caller.
type Emitter interface {
	Emit(ctx context.Context, eventType string, data any)
}

type topicEmitter struct {
	pub    Publisher
	topic  string
	logger zerolog.Logger
}

// NewEmitter publishes events to topic through pub.
func NewEmitter(pub Publisher, topic string, logger zerolog.Logger) Emitter {
	return &topicEmitter{
		pub:    pub,
		topic:  topic,
		logger: logger.With().Str("service", "EventEmitter").Logger(),
	}
}

func (e *topicEmitter) Emit(ctx context.Context, eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		e.logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal event")
		return
	}
	id, err := e.pub.Publish(ctx, e.topic, payload, map[string]string{"type": eventType})
	if err != nil {
		e.logger.Error().Err(err).Str("event_type", eventType).Str("topic", e.topic).Msg("Failed to publish event")
		return
	}
	e.logger.Debug().Str("event_type", eventType).Str("message_id", id).Msg("Event published")
}

type nopEmitter struct{}

// NopEmitter drops every event. Used when no GCP project is configured.
func NopEmitter() Emitter { return nopEmitter{} }

func (nopEmitter) Emit(context.Context, string, any) {}
