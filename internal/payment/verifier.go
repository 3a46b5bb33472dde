// Package payment verifies gateway payment callbacks and applies the
// entitlement they pay for.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"a2g/internal/model"
	"a2g/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidPayload is a validation error: nothing was written.
	ErrInvalidPayload = errors.New("invalid payment payload")
	// ErrSignatureMismatch is an integrity error: a failed record was written for audit.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	// ErrGrantFailed means the payment was verified but the entitlement write failed.
	ErrGrantFailed = errors.New("failed to apply entitlement grant")
)

// Callback is the payload delivered by the gateway after checkout.
type Callback struct {
	OrderID   string  `json:"orderId" validate:"required"`
	PaymentID string  `json:"paymentId" validate:"required"`
	Signature string  `json:"signature" validate:"required"`
	UserID    string  `json:"userId" validate:"required"`
	Plan      string  `json:"plan" validate:"required"`
	Amount    int64   `json:"amount" validate:"gte=0"`
	ContentID *string `json:"contentId,omitempty"`
}

// Ledger stores payment audit records.
type Ledger interface {
	RecordFailed(ctx context.Context, p *model.Payment) error
	// Settle inserts the verified record for p, conditional on the (OrderID, PaymentID)
	// pair, and runs apply against the user records in the same transaction. It reports
	// false without calling apply when a verified record already exists. If apply fails
	// the insert is rolled back and the error returned.
	Settle(ctx context.Context, p *model.Payment, apply func(ctx context.Context, users Entitlements) error) (bool, error)
	// GetVerified returns nil, nil when the pair has no verified record.
	GetVerified(ctx context.Context, orderID, paymentID string) (*model.Payment, error)
}

// Entitlements applies grants to user records.
type Entitlements interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	SetProPlan(ctx context.Context, userID string, until time.Time) error
	AddGrantedItem(ctx context.Context, userID, itemID string) error
}

type RenewalPolicy string

const (
	// RenewReset always sets PremiumUntil to now + the plan period.
	RenewReset RenewalPolicy = "reset"
	// RenewExtend adds the plan period to max(PremiumUntil, now).
	RenewExtend RenewalPolicy = "extend"
)

// ParseRenewalPolicy maps a config value to a policy, defaulting to reset.
func ParseRenewalPolicy(s string) RenewalPolicy {
	if RenewalPolicy(s) == RenewExtend {
		return RenewExtend
	}
	return RenewReset
}

// Outcome describes the grant applied for a verified callback.
type Outcome struct {
	Payment      *model.Payment
	Grant        PlanGrant
	PremiumUntil *time.Time
	// Duplicate is set when the order/payment pair was already verified;
	// nothing was recorded or granted by this call.
	Duplicate bool
	// AuditErr reports a failure to write the payment record. The verification
	// result stands regardless.
	AuditErr error
}

type Options struct {
	Secret    []byte
	Policy    RenewalPolicy
	ProMonths int
	Now       func() time.Time
}

type Verifier struct {
	ledger    Ledger
	users     Entitlements
	secret    []byte
	policy    RenewalPolicy
	proMonths int
	now       func() time.Time
	validate  *validator.Validate
	locks     util.KeyedMutex
	logger    zerolog.Logger
}

func NewVerifier(ledger Ledger, users Entitlements, opts Options, logger zerolog.Logger) *Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProMonths <= 0 {
		opts.ProMonths = 1
	}
	if opts.Policy == "" {
		opts.Policy = RenewReset
	}
	return &Verifier{
		ledger:    ledger,
		users:     users,
		secret:    opts.Secret,
		policy:    opts.Policy,
		proMonths: opts.ProMonths,
		now:       opts.Now,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With().Str("service", "PaymentVerifier").Logger(),
	}
}

// Validate checks the shape of cb without touching the ledger.
func (v *Verifier) Validate(cb Callback) (PlanGrant, error) {
	if err := v.validate.Struct(&cb); err != nil {
		return PlanGrant{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return ParsePlan(cb.Plan, cb.ContentID)
}

// Verify authenticates cb and, if genuine, grants what was paid for.
func (v *Verifier) Verify(ctx context.Context, cb Callback) (*Outcome, error) {
	grant, err := v.Validate(cb)
	if err != nil {
		return nil, err
	}

	unlock := v.locks.Lock(cb.OrderID + "|" + cb.PaymentID)
	defer unlock()

	lg := v.logger.With().Str("order_id", cb.OrderID).Str("payment_id", cb.PaymentID).Str("user_id", cb.UserID).Logger()
	record := &model.Payment{
		OrderID:   cb.OrderID,
		PaymentID: cb.PaymentID,
		Signature: cb.Signature,
		UserID:    cb.UserID,
		Plan:      cb.Plan,
		Amount:    cb.Amount,
		ContentID: cb.ContentID,
	}

	if !ValidSignature(v.secret, cb.OrderID, cb.PaymentID, cb.Signature) {
		record.Status = model.PaymentStatusFailed
		if err := v.ledger.RecordFailed(ctx, record); err != nil {
			lg.Error().Err(err).Msg("Failed to write failed payment audit record")
		}
		lg.Warn().Str("plan", cb.Plan).Msg("Payment signature mismatch")
		return nil, ErrSignatureMismatch
	}

	record.Status = model.PaymentStatusVerified
	out := &Outcome{Payment: record, Grant: grant}
	var grantErr error
	inserted, err := v.ledger.Settle(ctx, record, func(ctx context.Context, users Entitlements) error {
		grantErr = v.applyGrant(ctx, users, cb.UserID, out)
		return grantErr
	})
	switch {
	case grantErr != nil:
		lg.Error().Err(grantErr).Msg("Failed to apply grant; verified record rolled back")
		return nil, fmt.Errorf("%w: %w", ErrGrantFailed, grantErr)
	case err != nil:
		// Nothing was recorded; the grant still applies.
		lg.Error().Err(err).Msg("Failed to write verified payment record")
		out.AuditErr = err
		if err := v.applyGrant(ctx, v.users, cb.UserID, out); err != nil {
			lg.Error().Err(err).Msg("Failed to apply grant")
			return nil, fmt.Errorf("%w: %w", ErrGrantFailed, err)
		}
	case !inserted:
		lg.Info().Msg("Payment already verified; skipping grant")
		return v.duplicate(ctx, out, lg), nil
	}

	if out.PremiumUntil != nil {
		lg.Info().Time("premium_until", *out.PremiumUntil).Msg("Pro plan granted")
	} else {
		lg.Info().Str("content_id", grant.ContentID).Str("content_type", string(grant.ContentType)).Msg("Item granted")
	}
	return out, nil
}

func (v *Verifier) applyGrant(ctx context.Context, users Entitlements, userID string, out *Outcome) error {
	switch out.Grant.Kind {
	case GrantPro:
		until, err := v.proUntil(ctx, users, userID)
		if err != nil {
			return err
		}
		if err := users.SetProPlan(ctx, userID, until); err != nil {
			return err
		}
		out.PremiumUntil = &until
	case GrantSingleItem:
		return users.AddGrantedItem(ctx, userID, out.Grant.ContentID)
	}
	return nil
}

// duplicate fills out from the stored verified record and the user's current expiry.
func (v *Verifier) duplicate(ctx context.Context, out *Outcome, lg zerolog.Logger) *Outcome {
	out.Duplicate = true
	existing, err := v.ledger.GetVerified(ctx, out.Payment.OrderID, out.Payment.PaymentID)
	switch {
	case err != nil:
		lg.Warn().Err(err).Msg("Failed to load existing verified payment")
	case existing != nil:
		out.Payment = existing
	}
	if out.Grant.Kind == GrantPro {
		u, err := v.users.GetUserByID(ctx, out.Payment.UserID)
		if err != nil {
			lg.Warn().Err(err).Msg("Failed to load user for duplicate payment")
		} else if u != nil {
			out.PremiumUntil = u.PremiumUntil
		}
	}
	return out
}

func (v *Verifier) proUntil(ctx context.Context, users Entitlements, userID string) (time.Time, error) {
	now := v.now()
	if v.policy != RenewExtend {
		return now.AddDate(0, v.proMonths, 0), nil
	}
	u, err := users.GetUserByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	base := now
	if u != nil && u.PremiumUntil != nil && u.PremiumUntil.After(now) {
		base = *u.PremiumUntil
	}
	return base.AddDate(0, v.proMonths, 0), nil
}
