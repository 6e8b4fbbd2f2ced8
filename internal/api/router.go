package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "polyglot/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups every HTTP handler served by the router.
type Handlers struct {
	Conversation *ConversationHandler
	Recording    *RecordingHandler
	Model        *ModelHandler
	History      *HistoryHandler
}

// NewRouter creates and configures a new chi router with all the application's routes.
// rateLimitRPS bounds how often one client may start a generation.
func NewRouter(h Handlers, rateLimitRPS float64) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.

	// Serves the auto-generated Swagger UI for API documentation.
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Standard JSON routes get a request timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Conversation ---
			r.Get("/state", h.Conversation.GetState)
			r.Get("/languages", h.Conversation.ListLanguages)
			r.Post("/model/init", h.Conversation.InitModel)
			r.Post("/messages/stop", h.Conversation.StopGeneration)
			r.Post("/chat/clear", h.Conversation.ClearChat)

			// --- Settings ---
			r.Get("/settings", h.Conversation.GetSettings)
			r.Put("/settings", h.Conversation.UpdateSettings)
			r.Post("/settings/reset", h.Conversation.ResetSettings)

			// --- Follow-ups and speech ---
			r.Get("/followups", h.Conversation.ListFollowUps)
			r.Post("/followups/discussion", h.Conversation.StartDiscussion)
			r.Post("/speak", h.Conversation.Speak)

			// --- Recordings ---
			r.Post("/recordings/start", h.Recording.StartRecording)
			r.Delete("/recordings", h.Recording.PurgeRecordings)

			// --- Models ---
			r.Get("/models", h.Model.HandleListModels)

			// --- History ---
			r.Get("/history", h.History.ListHistory)
			r.Delete("/history", h.History.ClearHistory)
			r.Delete("/history/{entryID}", h.History.DeleteHistoryEntry)

			// Everything that starts a generation is rate limited per client.
			r.Group(func(r chi.Router) {
				r.Use(RateLimit(rateLimitRPS, 5))
				r.Post("/messages", h.Conversation.SendMessage)
				r.Post("/followups", h.Conversation.AskFollowUp)
				r.Post("/recordings/stop", h.Recording.StopRecording)
			})
		})

		// The event stream holds its connection open and must not time out.
		r.Get("/events", h.Conversation.StreamEvents)
	})

	return r
}
