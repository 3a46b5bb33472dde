package payments

import (
	"context"
	"errors"
	"time"

	"a2g/internal/payment"
	"a2g/internal/pgmq"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, maxMessages, pollSec int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

type Processor interface {
	Process(ctx context.Context, payload []byte) (*payment.Outcome, error)
}

type DeadLetters interface {
	SaveFailedCallback(ctx context.Context, source string, msgID int64, payload []byte, reason string) error
}

type Options struct {
	Queue         string
	VisibilitySec int
	MaxMessages   int
	PollSec       int
	MaxRetries    int
	// DeadLetterSource labels parked callbacks; defaults to Queue.
	DeadLetterSource string
}

// Run verifies queued gateway webhooks until ctx is cancelled. Messages that
// fail with an upstream error are left on the queue and become visible again
// after the visibility timeout; after MaxRetries deliveries they are parked in
// the dead letter table.
func Run(ctx context.Context, logger zerolog.Logger, q Queue, proc Processor, dlq DeadLetters, opts Options) error {
	if opts.DeadLetterSource == "" {
		opts.DeadLetterSource = opts.Queue
	}
	logger = logger.With().Str("orchestrator", "payments").Str("queue", opts.Queue).Logger()
	logger.Info().Msg("Starting payment callback orchestrator")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down payment callback orchestrator")
			return nil
		default:
		}

		msgs, err := q.ReadWithPoll(ctx, opts.Queue, opts.VisibilitySec, opts.MaxMessages, opts.PollSec)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading payment queue")
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			handle(ctx, logger, q, proc, dlq, opts, msg)
		}
	}
}

func handle(ctx context.Context, logger zerolog.Logger, q Queue, proc Processor, dlq DeadLetters, opts Options, msg *pgmq.Message) {
	lg := logger.With().Int64("msg_id", msg.ID).Int("read_ct", msg.ReadCount).Logger()

	out, err := proc.Process(ctx, msg.Data)
	switch {
	case err == nil:
		if out.Duplicate {
			lg.Info().Msg("Duplicate payment callback acknowledged")
		} else {
			lg.Info().Str("grant", out.Grant.Kind.String()).Msg("Payment callback verified")
		}
	case errors.Is(err, payment.ErrSignatureMismatch):
		// the failed attempt is already in the payment ledger
		lg.Warn().Msg("Dropping payment callback with bad signature")
	case errors.Is(err, payment.ErrInvalidPayload):
		lg.Warn().Err(err).Msg("Dead-lettering malformed payment callback")
		if !park(ctx, lg, dlq, opts.DeadLetterSource, msg, err) {
			return
		}
	case msg.ReadCount >= opts.MaxRetries:
		lg.Error().Err(err).Msg("Payment callback exhausted retries; dead-lettering")
		if !park(ctx, lg, dlq, opts.DeadLetterSource, msg, err) {
			return
		}
	default:
		lg.Error().Err(err).Msg("Payment callback failed; will retry after visibility timeout")
		return
	}

	if err := q.Delete(ctx, opts.Queue, []int64{msg.ID}); err != nil {
		lg.Error().Err(err).Msg("Error deleting payment message")
	}
}

func park(ctx context.Context, lg zerolog.Logger, dlq DeadLetters, source string, msg *pgmq.Message, cause error) bool {
	if err := dlq.SaveFailedCallback(ctx, source, msg.ID, msg.Data, cause.Error()); err != nil {
		lg.Error().Err(err).Msg("Failed to store dead letter; leaving message on queue")
		return false
	}
	return true
}
