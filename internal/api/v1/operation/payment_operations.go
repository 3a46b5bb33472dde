package operation

import "a2g/internal/api/v1/dto"

type VerifyPaymentInput struct {
	Body dto.PaymentVerifyDTO `json:"body"`
}

type VerifyPaymentOutput struct {
	Body dto.PaymentVerifyResponseDTO `json:"body"`
}

type PaymentWebhookInput struct {
	Body dto.PaymentWebhookDTO `json:"body"`
}

type PaymentWebhookOutput struct {
	Body dto.PaymentWebhookResponseDTO `json:"body"`
}

type GetUserPaymentsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Number of payments to return"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type GetUserPaymentsOutput struct {
	Body dto.PaymentListResponseDTO `json:"body"`
}
