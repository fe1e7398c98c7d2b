package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	boardmiddleware "github.com/crewboard/boardapi/internal/middleware"
)

// RouterOptions controls the construction of the board HTTP router.
// The zero value is valid; sensible defaults are applied where fields are not set.
type RouterOptions struct {
	IAMService    identityService
	BoardService  boardService
	SessionTTL    time.Duration
	DemoMode      bool
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the board handlers mounted. The router can be tailored via RouterOptions
// for CLI usage, tests, or other entrypoints.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	if opts.IAMService != nil {
		r.Use(boardmiddleware.SessionAuth(opts.IAMService))
	}

	// Apply custom middleware passed from the caller.
	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}

	if opts.IAMService != nil {
		r.Post("/auth/login", HandleLogin(opts.IAMService, sessionTTL))
		r.Post("/auth/logout", HandleLogout(opts.IAMService))
		r.Get("/api/auth/whoami", HandleWhoAmI(opts.IAMService))

		// Credential-free login for demo environments only.
		if opts.DemoMode {
			r.Post("/auth/impersonate", HandleImpersonate(opts.IAMService, sessionTTL))
		}

		r.Route("/api/users", func(r chi.Router) {
			r.Post("/", HandleCreateUser(opts.IAMService))
			r.Get("/", HandleListUsers(opts.IAMService))
			r.Get("/{id}", HandleGetUser(opts.IAMService))
			r.Delete("/{id}", HandleDeleteUser(opts.IAMService))
			r.Put("/{id}/role", HandleUpdateUserRole(opts.IAMService))
			r.Put("/{id}/password", HandleChangePassword(opts.IAMService))
		})
	}

	if opts.BoardService != nil {
		r.Route("/api/groups", func(r chi.Router) {
			r.Post("/", HandleCreateGroup(opts.BoardService))
			r.Get("/", HandleListGroups(opts.BoardService))
			r.Put("/{id}", HandleUpdateGroup(opts.BoardService))
			r.Delete("/{id}", HandleDeleteGroup(opts.BoardService))
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.Post("/", HandleCreateTask(opts.BoardService))
			r.Get("/", HandleListTasks(opts.BoardService))
			r.Get("/{id}", HandleGetTask(opts.BoardService))
			r.Put("/{id}", HandleUpdateTask(opts.BoardService))
			r.Delete("/{id}", HandleDeleteTask(opts.BoardService))
			r.Post("/{id}/owner", HandleAssignOwner(opts.BoardService))
			r.Delete("/{id}/owner", HandleUnassignOwner(opts.BoardService))
			r.Post("/{id}/messages", HandleAddMessage(opts.BoardService))
			r.Get("/{id}/messages", HandleListMessages(opts.BoardService))
		})
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}
