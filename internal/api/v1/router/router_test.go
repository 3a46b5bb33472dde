package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"a2g/internal/api/v1/handler"
	"a2g/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// newTestHandler wires handlers without services; only paths that fail
// before reaching a service are exercised.
func newTestHandler(cfg *config.Config) http.Handler {
	l := zerolog.Nop()
	v := validator.New()
	return NewHandler(cfg, Handlers{
		User:    handler.NewUserHandler(nil, nil, l),
		Item:    handler.NewItemHandler(nil, l),
		Quiz:    handler.NewQuizHandler(nil, v, l),
		Payment: handler.NewPaymentHandler(nil, l),
		Admin:   handler.NewAdminHandler(nil, v, l),
		DLQ:     handler.NewDLQHandler(nil, l),
	}, l)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouting(t *testing.T) {
	h := newTestHandler(&config.Config{JWTSecret: "secret", APIBaseURL: "http://localhost:8080/v1"})

	rec := serve(h, http.MethodGet, "/v1/openapi.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/sessions/{sessionId}/submit")
	assert.Contains(t, rec.Body.String(), "/users/me/payments")

	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/v1/users/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/v1/payments/verify", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodDelete, "/v1/sessions/s1", "").Code)

	rec = serve(h, http.MethodGet, "/items", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/v1/items", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "").Code)
}

func TestWebhookSkipsBearerAuth(t *testing.T) {
	h := newTestHandler(&config.Config{JWTSecret: "secret"})

	// Schema validation runs, so an empty body is rejected without a token.
	rec := serve(h, http.MethodPost, "/v1/payments/webhook", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDLQUsesPushAuth(t *testing.T) {
	unconfigured := newTestHandler(&config.Config{JWTSecret: "secret"})
	assert.Equal(t, http.StatusInternalServerError, serve(unconfigured, http.MethodPost, "/v1/dlq/record", `{"message":{}}`).Code)

	local := newTestHandler(&config.Config{JWTSecret: "secret", PubSubEmulatorHost: "localhost:8085"})
	assert.Equal(t, http.StatusBadRequest, serve(local, http.MethodPost, "/v1/dlq/record", `{"message":{"data":"","messageId":"","attributes":{}},"subscription":"s"}`).Code)
}
