package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"a2g/internal/api/v1/dto"
	"a2g/internal/model"
	"a2g/internal/repository"
)

const dlqStatusUnprocessed = "unprocessed"

type DLQService interface {
	ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error
	// SaveFailedCallback parks a queued payment callback that exhausted its retries.
	SaveFailedCallback(ctx context.Context, source string, msgID int64, payload []byte, reason string) error
}

type dlqService struct {
	repo repository.DLQRepository
}

func NewDLQService(repo repository.DLQRepository) DLQService {
	return &dlqService{repo: repo}
}

func (s *dlqService) ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error {
	// Undecodable data is stored as received
	decodedPayload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		decodedPayload = []byte(req.Message.Data)
	}

	var attributesJSON *string
	if len(req.Message.Attributes) > 0 {
		if attrBytes, err := json.Marshal(req.Message.Attributes); err == nil {
			attrStr := string(attrBytes)
			attributesJSON = &attrStr
		}
	}

	return s.repo.Create(ctx, &model.DeadLetterMessage{
		SubscriptionName: req.Subscription,
		MessageID:        req.Message.MessageID,
		Payload:          string(decodedPayload),
		Attributes:       attributesJSON,
		Status:           dlqStatusUnprocessed,
	})
}

func (s *dlqService) SaveFailedCallback(ctx context.Context, source string, msgID int64, payload []byte, reason string) error {
	attrs, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return err
	}
	attrStr := string(attrs)
	return s.repo.Create(ctx, &model.DeadLetterMessage{
		SubscriptionName: source,
		MessageID:        strconv.FormatInt(msgID, 10),
		Payload:          string(payload),
		Attributes:       &attrStr,
		Status:           dlqStatusUnprocessed,
	})
}
