package serverapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"hometasks/internal/auth"
	"hometasks/internal/config"
	"hometasks/internal/gateway"
	"hometasks/internal/httpmw"
	"hometasks/internal/task"
	"hometasks/internal/telemetry"
	staticfiles "hometasks/static"
)

type Options struct {
	Config  *config.Config
	Gateway gateway.Gateway
	Logger  logrus.FieldLogger
	// Registry receives HTTP and domain metrics. A fresh one is created when nil.
	Registry *prometheus.Registry
	// Clock overrides time.Now for "today".
	Clock     func() time.Time
	StaticDir string
}

// App is the wired server. Handler is what gets served; the rest is exposed
// for the CLI and tests.
type App struct {
	Handler http.Handler
	Tasks   *task.Service
	Auth    *auth.Service
	Events  *telemetry.MemoryRepository
}

func NewHandler(opts Options) (http.Handler, error) {
	app, err := New(opts)
	if err != nil {
		return nil, err
	}
	return app.Handler, nil
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if strings.TrimSpace(opts.StaticDir) == "" {
		opts.StaticDir = "static"
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	loc, err := opts.Config.Location()
	if err != nil {
		return nil, err
	}

	eventLog := telemetry.NewMemoryRepository(0)
	events := telemetry.Fanout(eventLog, telemetry.NewPrometheusRecorder(opts.Registry))

	store := task.NewStore(opts.Gateway, opts.Logger, events)
	svc := task.NewService(store,
		task.WithClock(opts.Clock),
		task.WithLocation(loc),
		task.WithDefaultRecurrence(opts.Config.Tasks.DefaultRecurrenceDays),
		task.WithEvents(events),
		task.WithLogger(opts.Logger),
	)

	authService := auth.NewService(auth.Options{
		Password:     opts.Config.Auth.Password,
		CookieName:   opts.Config.Auth.CookieName,
		SessionTTL:   opts.Config.Auth.SessionTTL,
		CookieSecure: opts.Config.Auth.CookieSecure,
		Logger:       opts.Logger,
		Events:       events,
	})
	authHandler := auth.NewHandler(authService)

	mux := http.NewServeMux()

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.Config.Server.DevStatic {
		staticHandler = http.FileServer(http.Dir(opts.StaticDir))
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticHandler))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "hometasks",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Check(r.Context()); err != nil {
			opts.Logger.WithError(err).Warn("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "hometasks",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	pages := &pageHandler{svc: svc, auth: authService, log: opts.Logger}
	mux.HandleFunc("GET /login", pages.Login)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.Handle("GET /{$}", authService.RequirePage(http.HandlerFunc(pages.Dashboard)))
	mux.Handle("POST /tasks", authService.RequirePage(http.HandlerFunc(pages.Add)))
	mux.Handle("POST /tasks/{id}/complete", authService.RequirePage(http.HandlerFunc(pages.Complete)))
	mux.Handle("POST /tasks/delete", authService.RequirePage(http.HandlerFunc(pages.Delete)))

	api := task.NewHandler(svc, opts.Logger)
	routes := &routeRegistry{}
	routes.handle(mux, "GET /api/tasks", "Board: tasks sorted by due date with urgency", "",
		authService.RequireAPI(http.HandlerFunc(api.List)))
	routes.handle(mux, "POST /api/tasks", "Add a task; recurrence and dueDate are optional",
		`{"task":"Water plants","dueDate":"2024-03-10","recurrence":3,"notes":""}`,
		authService.RequireAPI(http.HandlerFunc(api.Create)))
	routes.handle(mux, "DELETE /api/tasks", "Delete every task named ?name=", "",
		authService.RequireAPI(http.HandlerFunc(api.Delete)))
	routes.handle(mux, "POST /api/tasks/{id}/complete", "Complete a task and roll its due date forward", "",
		authService.RequireAPI(http.HandlerFunc(api.Complete)))
	routes.handle(mux, "GET /api/tasks/{id}/calendar.ics", "Recurring calendar event for a task", "",
		authService.RequireAPI(http.HandlerFunc(api.Calendar)))
	routes.handle(mux, "GET /api/stats", "Event counts since ?since=YYYY-MM-DD (default 30 days)", "",
		authService.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			since := opts.Clock().AddDate(0, 0, -30)
			if v := strings.TrimSpace(r.URL.Query().Get("since")); v != "" {
				d, err := task.ParseDate(v)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
					return
				}
				since = d
			}
			evs, err := eventLog.GetEvents(since, nil)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, telemetry.CalculateStats(evs, since))
		})))
	mux.Handle("GET /api", authService.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"routes": routes.list()})
	})))

	metrics := httpmw.NewMetrics(opts.Registry)
	handler := httpmw.Chain(
		mux,
		httpmw.WithRequestID,
		httpmw.WithAccessLog(opts.Logger),
		metrics.Middleware,
		httpmw.WithSecurityHeaders,
		httpmw.WithRecover(opts.Logger),
	)

	return &App{Handler: handler, Tasks: svc, Auth: authService, Events: eventLog}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func renderPage(w http.ResponseWriter, r *http.Request, c templ.Component) {
	templ.Handler(c).ServeHTTP(w, r)
}
