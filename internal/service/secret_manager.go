package service

import (
	"context"
	"errors"
	"fmt"

	"a2g/internal/config"
	"a2g/internal/payment"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
)

var ErrSecretNotConfigured = errors.New("payment gateway secret is not configured")

type SecretManagerService interface {
	// GetSecret returns the latest version of the named secret.
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name),
	}
	result, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// GatewaySecret resolves the payment gateway's shared secret: from Secret
// Manager when PAYMENT_SECRET_NAME is set, else from PAYMENT_WEBHOOK_SECRET.
func GatewaySecret(ctx context.Context, cfg *config.Config, secrets SecretManagerService) ([]byte, error) {
	if cfg.PaymentSecretName != "" {
		if secrets == nil {
			return nil, fmt.Errorf("%w: secret %s requires Secret Manager", ErrSecretNotConfigured, cfg.PaymentSecretName)
		}
		v, err := secrets.GetSecret(ctx, cfg.PaymentSecretName)
		if err != nil {
			return nil, fmt.Errorf("fetch gateway secret: %w", err)
		}
		if v == "" {
			return nil, ErrSecretNotConfigured
		}
		return []byte(v), nil
	}
	if cfg.PaymentWebhookSecret == "" {
		return nil, ErrSecretNotConfigured
	}
	return []byte(cfg.PaymentWebhookSecret), nil
}

// NewGatewayVerifier builds the payment verifier from configuration. Secret
// Manager is only contacted when PAYMENT_SECRET_NAME is set.
func NewGatewayVerifier(ctx context.Context, cfg *config.Config, ledger payment.Ledger, users payment.Entitlements, logger zerolog.Logger) (*payment.Verifier, error) {
	var secrets SecretManagerService
	if cfg.PaymentSecretName != "" {
		sm, err := NewSecretManagerService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer sm.Close()
		secrets = sm
	}
	secret, err := GatewaySecret(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}
	return payment.NewVerifier(ledger, users, payment.Options{
		Secret:    secret,
		Policy:    payment.ParseRenewalPolicy(cfg.ProRenewalPolicy),
		ProMonths: cfg.ProPlanMonths,
	}, logger), nil
}
