package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/ipagw/internal/gateway/api/handlers"
	gwmiddleware "github.com/marmos91/ipagw/internal/gateway/api/middleware"
	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
	"github.com/marmos91/ipagw/pkg/provisioning"
	"github.com/marmos91/ipagw/pkg/session"
)

// Publisher is the secret link publisher as seen by the HTTP layer.
type Publisher interface {
	handlers.LinkPublisher
	handlers.ToolChecker
}

// Deps are the services the routes are served from.
type Deps struct {
	// Sessions holds the operator sessions.
	Sessions *session.Store

	// Directory opens a directory connection at login.
	Directory handlers.Authenticator

	// DirectoryHost is reported by the readiness probe. Empty means unset.
	DirectoryHost string

	// Engine runs single and bulk user operations.
	Engine *provisioning.Engine

	// Publisher shares secrets as one-time links.
	Publisher Publisher

	// CookieName names the session cookie.
	CookieName string
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Request logging and tracing using the internal logger
//   - Panic recovery to prevent server crashes
//
// There is no request timeout middleware: bulk runs may take minutes and
// are bounded by the server write timeout instead.
func NewRouter(cfg Config, deps Deps) http.Handler {
	cfg.ApplyDefaults()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	cookie := gwmiddleware.SessionCookie{Name: deps.CookieName, Secure: cfg.CookieSecure}

	healthHandler := handlers.NewHealthHandler(deps.DirectoryHost, deps.Publisher)
	authHandler := handlers.NewAuthHandler(deps.Directory, deps.Sessions, cookie)
	userHandler := handlers.NewUserHandler(deps.Engine, cfg.MaxUploadSize.Int64())
	reportHandler := handlers.NewReportHandler()
	linkHandler := handlers.NewSecretLinkHandler(deps.Publisher)

	// Unauthenticated routes
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/utils/text-to-json", handlers.TextToJSON)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(gwmiddleware.RequireSession(deps.Sessions, cookie))

			r.Post("/creat-users", userHandler.Create)

			r.Route("/users", func(r chi.Router) {
				r.Post("/create-form", userHandler.CreateForm)
				r.Get("/search-by-email/{email}", userHandler.SearchByEmail)

				r.Post("/bulk-delete", userHandler.Bulk(provisioning.ActionDelete))
				r.Post("/bulk-disable", userHandler.Bulk(provisioning.ActionDisable))
				r.Post("/bulk-enable", userHandler.Bulk(provisioning.ActionEnable))
				r.Post("/bulk-reset-password", userHandler.Bulk(provisioning.ActionResetPassword))

				r.Post("/validate-excel", userHandler.ValidateExcel)
				r.Post("/bulk-create-from-excel", userHandler.CreateFromExcel)

				r.Route("/{username}", func(r chi.Router) {
					r.Get("/", userHandler.Get)
					r.Post("/delete", userHandler.Delete)
					r.Post("/disable", userHandler.Disable)
					r.Post("/enable", userHandler.Enable)
					r.Post("/reset-password", userHandler.ResetPassword)
				})
			})

			r.Route("/report", func(r chi.Router) {
				r.Get("/full-usersgroups-info", reportHandler.UsersGroups)
				r.Get("/full-info", reportHandler.FullInfo)
			})

			r.Post("/yopass/echo", linkHandler.Echo)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger traces each request and logs it using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			clientIP = host
		}

		ctx, span := telemetry.StartSpan(r.Context(), "HTTP "+r.Method)
		defer span.End()
		telemetry.SetAttributes(ctx, telemetry.ClientIP(clientIP))

		lc := logger.NewLogContext(requestID, clientIP).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		ctx = logger.WithContext(ctx, lc)

		logger.DebugCtx(ctx, "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "API request completed",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(start),
		)
	})
}
