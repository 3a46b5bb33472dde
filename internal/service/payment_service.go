package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"a2g/internal/model"
	"a2g/internal/payment"
	"a2g/internal/pubsub"

	"github.com/rs/zerolog"
)

// CallbackQueue buffers gateway webhooks until a worker verifies them.
type CallbackQueue interface {
	Send(ctx context.Context, queue string, payload []byte) (int64, error)
}

// PaymentHistory lists stored payment records.
type PaymentHistory interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Payment, error)
}

type PaymentService interface {
	// Verify handles the checkout callback relayed by the signed-in client.
	// The user id always comes from the caller's identity.
	Verify(ctx context.Context, userID string, cb payment.Callback) (*payment.Outcome, error)
	// Enqueue accepts a server-to-server webhook for asynchronous verification.
	Enqueue(ctx context.Context, cb payment.Callback) (int64, error)
	// Process verifies one queued webhook payload.
	Process(ctx context.Context, payload []byte) (*payment.Outcome, error)
	History(ctx context.Context, userID string, limit, offset int) ([]model.Payment, error)
}

type paymentService struct {
	verifier  *payment.Verifier
	history   PaymentHistory
	queue     CallbackQueue
	queueName string
	events    pubsub.Emitter
	logger    zerolog.Logger
}

func NewPaymentService(verifier *payment.Verifier, history PaymentHistory, queue CallbackQueue, queueName string, events pubsub.Emitter, logger zerolog.Logger) PaymentService {
	return &paymentService{
		verifier:  verifier,
		history:   history,
		queue:     queue,
		queueName: queueName,
		events:    events,
		logger:    logger.With().Str("service", "PaymentService").Logger(),
	}
}

func (s *paymentService) Verify(ctx context.Context, userID string, cb payment.Callback) (*payment.Outcome, error) {
	if cb.UserID != "" && cb.UserID != userID {
		s.logger.Warn().Str("user_id", userID).Str("order_id", cb.OrderID).Msg("Callback user does not match caller")
		return nil, fmt.Errorf("%w: callback belongs to another user", payment.ErrInvalidPayload)
	}
	cb.UserID = userID
	return s.verify(ctx, cb)
}

func (s *paymentService) Enqueue(ctx context.Context, cb payment.Callback) (int64, error) {
	if _, err := s.verifier.Validate(cb); err != nil {
		return 0, err
	}
	payload, err := json.Marshal(cb)
	if err != nil {
		return 0, fmt.Errorf("marshal callback: %w", err)
	}
	id, err := s.queue.Send(ctx, s.queueName, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", cb.OrderID).Msg("Failed to enqueue payment callback")
		return 0, upstream("enqueue callback", err)
	}
	s.logger.Info().Str("order_id", cb.OrderID).Int64("msg_id", id).Msg("Payment callback queued")
	return id, nil
}

func (s *paymentService) Process(ctx context.Context, payload []byte) (*payment.Outcome, error) {
	var cb payment.Callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidPayload, err)
	}
	return s.verify(ctx, cb)
}

func (s *paymentService) History(ctx context.Context, userID string, limit, offset int) ([]model.Payment, error) {
	payments, err := s.history.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, upstream("list payments", err)
	}
	return payments, nil
}

func (s *paymentService) verify(ctx context.Context, cb payment.Callback) (*payment.Outcome, error) {
	out, err := s.verifier.Verify(ctx, cb)
	switch {
	case errors.Is(err, payment.ErrSignatureMismatch):
		s.events.Emit(ctx, pubsub.EventPaymentFailed, map[string]any{
			"order_id":   cb.OrderID,
			"payment_id": cb.PaymentID,
			"user_id":    cb.UserID,
			"plan":       cb.Plan,
		})
		return nil, err
	case errors.Is(err, payment.ErrGrantFailed):
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	case err != nil:
		return nil, err
	}

	if out.AuditErr != nil {
		s.logger.Warn().Err(out.AuditErr).Str("order_id", cb.OrderID).Msg("Grant applied without an audit record")
	}
	if !out.Duplicate {
		data := map[string]any{
			"order_id":   cb.OrderID,
			"payment_id": cb.PaymentID,
			"user_id":    cb.UserID,
			"plan":       cb.Plan,
			"grant":      out.Grant.Kind.String(),
			"amount":     cb.Amount,
		}
		if out.Grant.Kind == payment.GrantSingleItem {
			data["content_id"] = out.Grant.ContentID
		}
		if out.PremiumUntil != nil {
			data["premium_until"] = *out.PremiumUntil
		}
		s.events.Emit(ctx, pubsub.EventPaymentVerified, data)
	}
	return out, nil
}
