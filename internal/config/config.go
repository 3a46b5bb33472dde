package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	APIBaseURL         string `envconfig:"API_BASE_URL" default:"http://localhost:8080/v1"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Redis holds in-progress quiz sessions
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	SessionTTLHours int    `envconfig:"SESSION_TTL_HOURS" default:"24"`

	// Notes bucket (S3 compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"notes"`
	S3Region    string `envconfig:"S3_REGION" default:"ap-south-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// GCP
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	PubSubEventsTopic             string `envconfig:"PUBSUB_EVENTS_TOPIC" default:"a2g-events"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`

	// Payment gateway
	PaymentWebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET"`
	PaymentSecretName    string `envconfig:"PAYMENT_SECRET_NAME"`
	ProPlanMonths        int    `envconfig:"PRO_PLAN_MONTHS" default:"1"`
	ProRenewalPolicy     string `envconfig:"PRO_RENEWAL_POLICY" default:"reset"`

	// Scoring
	ScorePointsCorrect   float64 `envconfig:"SCORE_POINTS_CORRECT" default:"1"`
	ScorePointsIncorrect float64 `envconfig:"SCORE_POINTS_INCORRECT" default:"0"`

	// Payment callback orchestrator settings
	PaymentQueueName         string `envconfig:"PAYMENT_QUEUE_NAME" default:"payment_callbacks"`
	PaymentPollTimeoutSec    int    `envconfig:"PAYMENT_POLL_TIMEOUT_SEC" default:"30"`
	PaymentPollMaxMsg        int    `envconfig:"PAYMENT_POLL_MAX_MSG" default:"10"`
	PaymentVisibilityTimeout int    `envconfig:"PAYMENT_VISIBILITY_TIMEOUT_SEC" default:"60"`
	PaymentMaxRetries        int    `envconfig:"PAYMENT_MAX_RETRIES" default:"5"`
	PaymentDeadLetterSubName string `envconfig:"PAYMENT_DEAD_LETTER_NAME" default:"payment_callbacks_dlq"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SessionTTL is how long an untouched quiz session is kept in Redis.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// IsLocalDev reports whether Pub/Sub traffic goes to the emulator.
func (c *Config) IsLocalDev() bool {
	return c.PubSubEmulatorHost != ""
}
