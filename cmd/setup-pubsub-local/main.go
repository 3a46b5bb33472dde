package main

import (
	"context"
	"errors"
	"time"

	"a2g/internal/config"
	"a2g/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// For local development, 'host.docker.internal' lets the emulator reach the API.
const dlqEndpointLocal = "http://host.docker.internal:8080/v1/dlq/record"

const retention = 7 * 24 * time.Hour

func main() {
	logger := logger.New("setup")
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set; this tool only targets the emulator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer client.Close()

	endpoint := cfg.DLQEndpointURL
	if endpoint == "" {
		endpoint = dlqEndpointLocal
	}
	if err := setup(ctx, client, cfg.PubSubEventsTopic, endpoint, logger); err != nil {
		logger.Fatal().Err(err).Msg("Pub/Sub setup failed")
	}
	logger.Info().Msg("Pub/Sub setup for local environment complete")
}

// setup recreates the events topic, its dead-letter topic, a pull
// subscription for event consumers and the push subscription that records
// dead letters through the API.
func setup(ctx context.Context, client *pubsub.Client, topicID, dlqEndpoint string, logger zerolog.Logger) error {
	if err := reset(ctx, client, logger); err != nil {
		return err
	}

	dlqTopic, err := client.CreateTopicWithConfig(ctx, topicID+"-dlq", &pubsub.TopicConfig{RetentionDuration: retention})
	if err != nil {
		return err
	}
	topic, err := client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
	if err != nil {
		return err
	}
	retry := &pubsub.RetryPolicy{MinimumBackoff: 10 * time.Second, MaximumBackoff: 600 * time.Second}

	subs := map[string]pubsub.SubscriptionConfig{
		topicID + "-sub": {
			Topic:       topic,
			AckDeadline: 60 * time.Second,
			RetryPolicy: retry,
			DeadLetterPolicy: &pubsub.DeadLetterPolicy{
				DeadLetterTopic:     dlqTopic.String(),
				MaxDeliveryAttempts: 5,
			},
		},
		topicID + "-dlq-sub": {
			Topic:       dlqTopic,
			PushConfig:  pubsub.PushConfig{Endpoint: dlqEndpoint},
			AckDeadline: 60 * time.Second,
			RetryPolicy: retry,
		},
	}
	for id, sc := range subs {
		logger.Info().Str("subscription", id).Str("topic", sc.Topic.ID()).Msg("Creating subscription")
		if _, err := client.CreateSubscription(ctx, id, sc); err != nil {
			return err
		}
	}
	return nil
}

// reset deletes every topic and subscription. It must only run against the emulator.
func reset(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) error {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		logger.Info().Str("subscription", sub.ID()).Msg("Deleting subscription")
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("subscription", sub.ID()).Msg("Failed to delete subscription")
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		logger.Info().Str("topic", topic.ID()).Msg("Deleting topic")
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("topic", topic.ID()).Msg("Failed to delete topic")
		}
	}
	return nil
}
