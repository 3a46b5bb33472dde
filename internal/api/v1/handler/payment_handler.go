package handler

import (
	"context"

	"a2g/internal/api/v1/dto"
	"a2g/internal/api/v1/operation"
	"a2g/internal/payment"
	"a2g/internal/service"

	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         zerolog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

func toCallback(in dto.PaymentVerifyDTO, userID string) payment.Callback {
	return payment.Callback{
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Signature: in.Signature,
		UserID:    userID,
		Plan:      in.Plan,
		Amount:    in.Amount,
		ContentID: in.ContentID,
	}
}

// VerifyPayment checks the checkout callback for the signed-in user and
// applies the purchased entitlement.
func (h *PaymentHandler) VerifyPayment(ctx context.Context, input *operation.VerifyPaymentInput) (*operation.VerifyPaymentOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	out, err := h.paymentService.Verify(ctx, userID, toCallback(input.Body, userID))
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to verify payment")
	}
	return &operation.VerifyPaymentOutput{Body: dto.PaymentVerifyResponseDTO{
		Status:       "verified",
		Duplicate:    out.Duplicate,
		Grant:        out.Grant.Kind.String(),
		ContentID:    out.Grant.ContentID,
		PremiumUntil: out.PremiumUntil,
	}}, nil
}

// PaymentWebhook queues a gateway notification for the payments worker.
// The signature is checked by the worker, not here.
func (h *PaymentHandler) PaymentWebhook(ctx context.Context, input *operation.PaymentWebhookInput) (*operation.PaymentWebhookOutput, error) {
	id, err := h.paymentService.Enqueue(ctx, toCallback(input.Body.PaymentVerifyDTO, input.Body.UserID))
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to queue payment callback")
	}
	h.logger.Info().Str("order_id", input.Body.OrderID).Int64("message_id", id).Msg("Payment callback queued")
	return &operation.PaymentWebhookOutput{Body: dto.PaymentWebhookResponseDTO{Queued: true, MessageID: id}}, nil
}

// GetUserPayments lists the caller's payment attempts, newest first.
func (h *PaymentHandler) GetUserPayments(ctx context.Context, input *operation.GetUserPaymentsInput) (*operation.GetUserPaymentsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := h.paymentService.History(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "Failed to retrieve payments")
	}
	out := dto.PaymentListResponseDTO{Payments: make([]dto.PaymentRecordDTO, len(payments))}
	for i, p := range payments {
		out.Payments[i] = dto.PaymentRecordDTO{
			ID:        p.ID,
			OrderID:   p.OrderID,
			PaymentID: p.PaymentID,
			Plan:      p.Plan,
			Amount:    p.Amount,
			ContentID: p.ContentID,
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt,
		}
	}
	return &operation.GetUserPaymentsOutput{Body: out}, nil
}
