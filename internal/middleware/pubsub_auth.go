package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// TokenValidator checks a Google-signed OIDC token for an audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PubSubAuthMiddleware guards the dead-letter push endpoint. Only tokens minted
// for the configured push service account are let through. Local development
// skips the check since the emulator does not sign push requests.
func PubSubAuthMiddleware(isLocalDev bool, audience, serviceAccount string, validate TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLocalDev {
				next.ServeHTTP(w, r)
				return
			}
			if audience == "" || serviceAccount == "" {
				logger.Error().Msg("push auth has no audience or service account configured")
				http.Error(w, "push auth not configured", http.StatusInternalServerError)
				return
			}

			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("push request without bearer token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := validate(r.Context(), token, audience)
			if err != nil {
				logger.Warn().Err(err).Msg("push token rejected")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			email, _ := payload.Claims["email"].(string)
			if email != serviceAccount {
				logger.Warn().Str("token_email", email).Msg("push token from unexpected account")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
