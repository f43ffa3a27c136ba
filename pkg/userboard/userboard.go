// Package userboard assembles the dashboard from configuration: the users
// API gateway, the demo fallback, the store, its hooks and transports.
package userboard

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	core "github.com/goliatone/go-userboard/components/userboard"
	"github.com/goliatone/go-userboard/components/userboard/httpapi"
	"github.com/goliatone/go-userboard/components/userboard/queries"
	"github.com/goliatone/go-userboard/pkg/activity"
	"github.com/goliatone/go-userboard/pkg/activity/usersink"
	"github.com/goliatone/go-userboard/pkg/config"
	"github.com/goliatone/go-userboard/pkg/logging"
	"github.com/goliatone/go-userboard/pkg/metrics"
	"github.com/goliatone/go-userboard/pkg/usersapi"
)

// Store exposes the underlying components/userboard.Store type.
type Store = core.Store

// Options re-export for convenience.
type Options = core.Options

// NewStore proxies to the internal constructor.
func NewStore(opts Options) *Store {
	return core.NewStore(opts)
}

// Deps overrides pieces New would otherwise build from configuration.
type Deps struct {
	Logger *zap.Logger
	// Host is the host:port the dashboard is served from. It decides whether
	// the API is same-origin.
	Host         string
	Remote       core.DataSource
	Fallback     core.FallbackSource
	ActivitySink usersink.Sink
	Renderer     core.Renderer
}

// App is a fully wired dashboard.
type App struct {
	Store      *core.Store
	Controller *core.Controller
	Executor   *httpapi.CommandExecutor
	Broadcast  *core.BroadcastHook
	Metrics    *metrics.Telemetry
	Activity   *activity.Emitter
	Logger     *zap.Logger
	BaseURL    string
}

// New wires an App from cfg.
func New(cfg config.Config, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := usersapi.ResolveBaseURL(deps.Host, cfg.ResolveOptions())
	remote := deps.Remote
	if remote == nil {
		client, err := usersapi.NewHTTPClient(usersapi.HTTPConfig{BaseURL: baseURL, Timeout: cfg.API.Timeout})
		if err != nil {
			return nil, fmt.Errorf("userboard: %w", err)
		}
		remote = client
	}
	fallback := deps.Fallback
	if fallback == nil {
		fallback = usersapi.NewDemoClient()
	}

	sink := deps.ActivitySink
	if sink == nil {
		sink = usersink.LogSink{Logger: logger.Named("activity")}
	}
	emitter := activity.NewEmitter(activity.Hooks{usersink.Hook{Sink: sink}}, activity.Config{
		Enabled: true,
		ActorID: uuid.NewString(),
	})

	prom := metrics.New("userboard")
	telemetry := core.MultiTelemetry{logging.NewTelemetry(logger), prom}
	broadcast := core.NewBroadcastHook()

	store := core.NewStore(core.Options{
		Remote:      remote,
		Fallback:    fallback,
		Telemetry:   telemetry,
		RefreshHook: core.MultiHook{broadcast, activity.NewRefreshHook(emitter)},
		Logger:      logger.Named("store"),
	})

	renderer := deps.Renderer
	if renderer == nil {
		var err error
		renderer, err = core.NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("userboard: templates: %w", err)
		}
	}
	chartOpts := []core.ChartOption{}
	if cfg.Chart.Theme != "" {
		chartOpts = append(chartOpts, core.WithChartTheme(cfg.Chart.Theme))
	}
	if cfg.Chart.AssetsHost != "" {
		chartOpts = append(chartOpts, core.WithChartAssetsHost(cfg.Chart.AssetsHost))
	}
	controller := core.NewController(core.ControllerOptions{
		Store:    store,
		Renderer: renderer,
		Chart:    core.NewChartRenderer(chartOpts...),
		BasePath: cfg.Server.BasePath,
	})

	return &App{
		Store:      store,
		Controller: controller,
		Executor:   httpapi.NewCommandExecutor(store, telemetry),
		Broadcast:  broadcast,
		Metrics:    prom,
		Activity:   emitter,
		Logger:     logger,
		BaseURL:    baseURL,
	}, nil
}

// OpsHandler serves metrics, the event streams, and the JSON API on plain
// net/http for a listener separate from the dashboard.
func (a *App) OpsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", a.Metrics.Handler())
	mux.HandleFunc("GET /events", a.Broadcast.ServeSSE)
	mux.HandleFunc("GET /events/ws", a.Broadcast.ServeWebSocket)
	handlers := &httpapi.Handlers{API: a.Executor, View: queries.NewViewQuery(a.Store)}
	handlers.Mount(mux, "/api")
	return mux
}

// Close releases event subscribers.
func (a *App) Close() {
	a.Broadcast.Close()
}
