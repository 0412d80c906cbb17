// Package http assembles the chi router: middleware stack, public auth
// surface, the account surface reachable during a forced credential update,
// and the record API behind the full session gate.
package http

import (
	"log/slog"
	"net/http"

	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/http/handlers"
	appmw "github.com/forsetihq/flowd/internal/http/middleware"
	"github.com/forsetihq/flowd/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterDeps struct {
	Logger    *slog.Logger
	Store     *database.Store
	Lifecycle *service.DemoLifecycle
	Auth      *appmw.Authenticator
	Health    *handlers.HealthHandler
	Pages     *handlers.PagesHandler
	AuthAPI   *handlers.AuthHandler
	Account   *handlers.AccountHandler
	Records   *handlers.RecordsHandler
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmw.RequestLogger(deps.Logger))

	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)

	// Navigation skeleton: redirect-only routes the browser lands on.
	r.Group(func(r chi.Router) {
		r.Use(appmw.DemoGuard(deps.Lifecycle))
		r.Use(appmw.StoreGuard(deps.Store))
		r.Use(deps.Auth.Load)

		r.Get("/login", deps.Pages.Login)
		r.Get("/setup", deps.Pages.Setup)
		r.Get("/app", deps.Pages.App)
		r.Get("/account", deps.Pages.Account)
		r.Get("/logout", deps.Pages.Logout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// The lazy demo reset must run before any read lease is taken.
		r.Use(appmw.DemoGuard(deps.Lifecycle))
		r.Use(appmw.StoreGuard(deps.Store))
		r.Use(deps.Auth.Load)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/mode", deps.AuthAPI.Mode)
			r.Post("/setup/begin", deps.AuthAPI.SetupBegin)
			r.Post("/setup/complete", deps.AuthAPI.SetupComplete)
			r.Post("/totp-login", deps.AuthAPI.LoginTOTP)
			r.Post("/sms/start", deps.AuthAPI.SMSStart)
			r.Post("/sms/complete", deps.AuthAPI.SMSComplete)
			r.Get("/oauth/{provider}/login", deps.AuthAPI.OAuthLogin)
			r.Get("/oauth/{provider}/callback", deps.AuthAPI.OAuthCallback)
			r.Post("/logout", deps.AuthAPI.Logout)
		})

		// Reachable with a session that still owes a credential update.
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAuth)
			r.Get("/account", deps.Account.Get)
			r.Put("/account", deps.Account.Update)
			r.Post("/account/totp-setup", deps.Account.BeginTOTPSetup)
		})

		// First account may be created anonymously; the service enforces it.
		r.Post("/users", deps.Account.Create)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireCurrentCredentials)

			r.Get("/projects", deps.Records.ListProjects)
			r.Post("/projects", deps.Records.CreateProject)
			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", deps.Records.GetProject)
				r.Get("/tasks", deps.Records.ListTasks)
				r.Post("/tasks", deps.Records.CreateTask)
				r.Get("/backlog", deps.Records.ListBacklogItems)
				r.Post("/backlog", deps.Records.CreateBacklogItem)
				r.Get("/sprints", deps.Records.ListSprints)
				r.Post("/sprints", deps.Records.CreateSprint)
				r.Get("/resources", deps.Records.ListResources)
				r.Post("/resources", deps.Records.CreateResource)
			})
			r.Patch("/tasks/{taskID}", deps.Records.UpdateTask)
			r.Delete("/tasks/{taskID}", deps.Records.DeleteTask)
			r.Patch("/backlog/{itemID}", deps.Records.UpdateBacklogItem)
			r.Delete("/backlog/{itemID}", deps.Records.DeleteBacklogItem)
			r.Patch("/sprints/{sprintID}", deps.Records.UpdateSprint)
			r.Delete("/sprints/{sprintID}", deps.Records.DeleteSprint)
			r.Patch("/resources/{resourceID}", deps.Records.UpdateResource)
			r.Delete("/resources/{resourceID}", deps.Records.DeleteResource)
		})
	})

	return otelhttp.NewHandler(r, "flowd.http")
}
