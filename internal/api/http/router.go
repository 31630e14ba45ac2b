package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bhavishya-khunger/aiformbuilder/internal/ai"
	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
	"github.com/bhavishya-khunger/aiformbuilder/internal/rbac"
)

// Deps bundles everything the API surface needs. AI fields may be nil when
// generation is disabled.
type Deps struct {
	DB            *sql.DB
	Store         form.Store
	Submit        *form.SubmitService
	Grader        form.Grader
	Auth          *auth.AuthService
	Generator     *ai.Generator
	Ledger        *ai.Ledger
	AICreditCost  int64
	SignupCredits int64
	CORSOrigins   []string
}

// NewRouter assembles the full HTTP surface: public routes for respondents,
// JWT-protected routes for owners, RBAC on every protected endpoint.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", RegisterHandler(d.DB, d.Auth, d.SignupCredits))
	r.Post("/auth/login", LoginHandler(d.DB, d.Auth))

	// Respondent surface. Submission accepts an optional token so logged-in
	// respondents are deduplicated by user id rather than email.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.OptionalJWTMiddleware(d.Auth))
		pr.Get("/public/forms/{formID}", PublicFormHandler(d.Store))
		pr.Post("/public/forms/{formID}/responses", SubmitResponseHandler(d.Submit))
	})

	// Owner surface.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromDB(d.DB, true))

		pr.Get("/me", MeHandler(d.DB))

		pr.With(rbac.Require("form:create")).
			Post("/forms", CreateFormHandler(d.Store))
		pr.With(rbac.Require("form:view-own")).
			Get("/forms", ListMyFormsHandler(d.Store))
		pr.With(rbac.Require("form:view-own")).
			Get("/forms/{formID}", GetFormHandler(d.Store))
		pr.With(rbac.Require("form:update-own")).
			Put("/forms/{formID}", UpdateFormHandler(d.Store))
		pr.With(rbac.Require("form:publish-own")).
			Post("/forms/{formID}/status", SetFormStatusHandler(d.Store))
		pr.With(rbac.Require("form:delete-own")).
			Delete("/forms/{formID}", DeleteFormHandler(d.Store))

		pr.With(rbac.Require("question:manage-own")).
			Post("/forms/{formID}/questions", AddQuestionHandler(d.Store))
		pr.With(rbac.Require("question:manage-own")).
			Put("/forms/{formID}/questions/{questionID}", UpdateQuestionHandler(d.Store))
		pr.With(rbac.Require("question:manage-own")).
			Delete("/forms/{formID}/questions/{questionID}", DeleteQuestionHandler(d.Store))
		pr.With(rbac.Require("question:manage-own")).
			Post("/forms/{formID}/questions/reorder", ReorderQuestionsHandler(d.Store))

		pr.With(rbac.Require("response:view-own-form")).
			Get("/forms/{formID}/responses", ListResponsesHandler(d.Store))
		pr.With(rbac.Require("response:view-own-form")).
			Get("/forms/{formID}/responses/{responseID}", GetResponseHandler(d.Store))
		pr.With(rbac.Require("response:view-own-form")).
			Post("/forms/{formID}/responses/{responseID}/rescore", RescoreResponseHandler(d.Store, d.Grader))

		pr.With(rbac.Require("stats:view-own")).
			Get("/forms/{formID}/stats", FormStatsHandler(d.Store))

		if d.Generator != nil && d.Ledger != nil {
			pr.With(rbac.Require("ai:generate")).
				Post("/ai/forms/generate", GenerateFormHandler(d.Store, d.Generator, d.Ledger, d.AICreditCost))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	return r
}
