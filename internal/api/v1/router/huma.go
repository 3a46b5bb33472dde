package router

import (
	"net/http"
	"os"

	"a2g/internal/api/v1/handler"
	"a2g/internal/config"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the operation handlers served under /v1.
type Handlers struct {
	User    *handler.UserHandler
	Item    *handler.ItemHandler
	Quiz    *handler.QuizHandler
	Payment *handler.PaymentHandler
	Admin   *handler.AdminHandler
	DLQ     *handler.DLQHandler
}

// SetupHumaAPI creates a Huma API instance
func SetupHumaAPI(
	cfg *config.Config,
	authMiddleware func(http.Handler) http.Handler,
	pubsubAuthMiddleware func(http.Handler) http.Handler,
	logger zerolog.Logger,
) (*chi.Mux, huma.API) {
	chiRouter := chi.NewRouter()

	// Apply middleware based on path
	chiRouter.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/openapi.json", "/openapi.yaml", "/docs", "/schemas":
				next.ServeHTTP(w, r)
			case "/payments/webhook":
				// Signed by the gateway; the worker checks the signature.
				next.ServeHTTP(w, r)
			case "/dlq/record":
				pubsubAuthMiddleware(next).ServeHTTP(w, r)
			default:
				authMiddleware(next).ServeHTTP(w, r)
			}
		})
	})

	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	humaConfig := huma.DefaultConfig("A2G Smart Notes API v1", version)
	humaConfig.Info.Description = "Notes, mock tests and payments for A2G Smart Notes"
	humaConfig.Servers = []*huma.Server{{URL: cfg.APIBaseURL}}

	api := humachi.New(chiRouter, humaConfig)

	logger.Info().Str("version", version).Msg("Huma API initialized for /v1")
	return chiRouter, api
}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(api huma.API, h Handlers, logger zerolog.Logger) {
	// ========== USER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "createUser",
		Method:      http.MethodPost,
		Path:        "/users/me",
		Summary:     "Create or update user profile",
		Description: "Creates the profile of the authenticated user on first sign-in. Entitlements are never changed here",
		Tags:        []string{"users"},
	}, h.User.CreateUser)

	huma.Register(api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get user profile",
		Description: "Retrieves the profile and entitlement summary of the authenticated user",
		Tags:        []string{"users"},
	}, h.User.GetUser)

	huma.Register(api, huma.Operation{
		OperationID: "getEntitlements",
		Method:      http.MethodGet,
		Path:        "/users/me/entitlements",
		Summary:     "Get entitlements",
		Description: "Reports plan state, expiry, lifetime access and individually unlocked items",
		Tags:        []string{"users"},
	}, h.User.GetEntitlements)

	huma.Register(api, huma.Operation{
		OperationID: "getUserResults",
		Method:      http.MethodGet,
		Path:        "/users/me/results",
		Summary:     "List test results",
		Description: "Retrieves the authenticated user's completed test reports, newest first",
		Tags:        []string{"users", "tests"},
	}, h.User.GetUserResults)

	// ========== CATALOGUE OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/items",
		Summary:     "List notes and tests",
		Description: "Lists the catalogue with a locked flag for premium items the user cannot open",
		Tags:        []string{"items"},
	}, h.Item.ListItems)

	huma.Register(api, huma.Operation{
		OperationID: "checkAccess",
		Method:      http.MethodGet,
		Path:        "/items/{itemId}/access",
		Summary:     "Check item access",
		Description: "Reports whether the authenticated user may open the item",
		Tags:        []string{"items"},
	}, h.Item.CheckAccess)

	huma.Register(api, huma.Operation{
		OperationID: "getNoteDownloadURL",
		Method:      http.MethodGet,
		Path:        "/notes/{noteId}/download",
		Summary:     "Get note download URL",
		Description: "Generates a 15 minute signed URL for the note file. Responds 403 upgrade_required when locked",
		Tags:        []string{"items", "notes"},
	}, h.Item.GetNoteDownloadURL)

	// ========== TEST SESSION OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "startSession",
		Method:        http.MethodPost,
		Path:          "/tests/{testId}/sessions",
		Summary:       "Start a test session",
		Description:   "Starts an exam or practice attempt at a test the user has access to",
		Tags:          []string{"tests"},
		DefaultStatus: http.StatusCreated,
	}, h.Quiz.StartSession)

	huma.Register(api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/sessions/{sessionId}",
		Summary:     "Get a test session",
		Description: "Retrieves the session; correct answers stay hidden in exam mode until submission",
		Tags:        []string{"tests"},
	}, h.Quiz.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "selectAnswer",
		Method:      http.MethodPut,
		Path:        "/sessions/{sessionId}/answers/{index}",
		Summary:     "Select an answer",
		Description: "Records the selected option for a question. Exam answers may be changed until submission",
		Tags:        []string{"tests"},
	}, h.Quiz.SelectAnswer)

	huma.Register(api, huma.Operation{
		OperationID: "navigateSession",
		Method:      http.MethodPost,
		Path:        "/sessions/{sessionId}/navigate",
		Summary:     "Move between questions",
		Description: "Moves the cursor with goto, next or previous, clamped to the question range",
		Tags:        []string{"tests"},
	}, h.Quiz.Navigate)

	huma.Register(api, huma.Operation{
		OperationID: "getFeedback",
		Method:      http.MethodGet,
		Path:        "/sessions/{sessionId}/feedback/{index}",
		Summary:     "Get question feedback",
		Description: "Reveals correctness and explanation for an answered practice question",
		Tags:        []string{"tests"},
	}, h.Quiz.GetFeedback)

	huma.Register(api, huma.Operation{
		OperationID: "submitSession",
		Method:      http.MethodPost,
		Path:        "/sessions/{sessionId}/submit",
		Summary:     "Submit a test session",
		Description: "Completes the session and returns its report. Submitting again returns the same report",
		Tags:        []string{"tests"},
	}, h.Quiz.SubmitSession)

	huma.Register(api, huma.Operation{
		OperationID:   "abandonSession",
		Method:        http.MethodDelete,
		Path:          "/sessions/{sessionId}",
		Summary:       "Abandon a test session",
		Description:   "Discards an in-progress session without scoring it",
		Tags:          []string{"tests"},
		DefaultStatus: http.StatusNoContent,
	}, h.Quiz.AbandonSession)

	huma.Register(api, huma.Operation{
		OperationID: "getResult",
		Method:      http.MethodGet,
		Path:        "/sessions/{sessionId}/result",
		Summary:     "Get a test report",
		Description: "Retrieves the report of a completed session",
		Tags:        []string{"tests"},
	}, h.Quiz.GetResult)

	// ========== PAYMENT OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "verifyPayment",
		Method:      http.MethodPost,
		Path:        "/payments/verify",
		Summary:     "Verify a payment",
		Description: "Verifies the gateway signature of a checkout and unlocks the purchased plan or item",
		Tags:        []string{"payments"},
	}, h.Payment.VerifyPayment)

	huma.Register(api, huma.Operation{
		OperationID:   "paymentWebhook",
		Method:        http.MethodPost,
		Path:          "/payments/webhook",
		Summary:       "Receive gateway webhook",
		Description:   "Queues a gateway notification for verification by the payments worker",
		Tags:          []string{"payments"},
		DefaultStatus: http.StatusAccepted,
	}, h.Payment.PaymentWebhook)

	huma.Register(api, huma.Operation{
		OperationID: "getUserPayments",
		Method:      http.MethodGet,
		Path:        "/users/me/payments",
		Summary:     "List payments",
		Description: "Retrieves the authenticated user's verified and failed payment attempts, newest first",
		Tags:        []string{"users", "payments"},
	}, h.Payment.GetUserPayments)

	// ========== ADMIN OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "overrideEntitlements",
		Method:      http.MethodPost,
		Path:        "/admin/users/{userId}/entitlements",
		Summary:     "Override user entitlements",
		Description: "Sets lifetime access or plan expiry and grants items. Requires the admin role",
		Tags:        []string{"admin"},
	}, h.Admin.OverrideEntitlements)

	// ========== DLQ OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "recordDLQ",
		Method:      http.MethodPost,
		Path:        "/dlq/record",
		Summary:     "Record DLQ message",
		Description: "Records a dead-lettered event pushed by Pub/Sub",
		Tags:        []string{"dlq"},
	}, h.DLQ.RecordDLQ)

	logger.Info().Msg("All operations registered successfully")
}
