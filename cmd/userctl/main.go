package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/goliatone/go-userboard/pkg/config"
	"github.com/goliatone/go-userboard/pkg/logging"
	"github.com/goliatone/go-userboard/pkg/userboard"
)

type cli struct {
	Config  string   `short:"c" type:"path" help:"Path to the userboard YAML config (defaults to ./userboard.yaml when present)."`
	EnvFile []string `name:"env-file" help:"Dotenv files to read (defaults to .env and .local.env)."`
	APIURL  string   `name:"api-url" help:"Users API origin. Overrides api.base_url."`
	Host    string   `help:"Host:port the dashboard is reached at. Decides whether the API is same-origin."`
	Verbose bool     `short:"v" help:"Enable debug logging."`

	Serve  serveCmd  `cmd:"" help:"Serve the dashboard, the JSON API, and metrics."`
	List   listCmd   `cmd:"" help:"List users after search, age range, and sort."`
	Stats  statsCmd  `cmd:"" help:"Show the average age ranking by name group."`
	Create createCmd `cmd:"" help:"Create a user."`
	Delete deleteCmd `cmd:"" help:"Delete a user by name."`
	Upload uploadCmd `cmd:"" help:"Upload a CSV file of users."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root cli
	kctx := kong.Parse(&root,
		kong.Name("userctl"),
		kong.Description("Browse and manage users through the users API, with demo data when it is unreachable."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&root)
	kctx.FatalIfErrorf(err)
}

// session is what every sub-command needs: configuration, a logger, and a
// wired dashboard.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	app    *userboard.App
}

func (c *cli) open() (*session, error) {
	cfg, err := config.Load(config.LoadOptions{Path: c.Config, EnvFiles: c.EnvFile})
	if err != nil {
		return nil, err
	}
	if c.APIURL != "" {
		cfg.API.BaseURL = c.APIURL
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	app, err := userboard.New(cfg, userboard.Deps{Logger: logger, Host: c.dashboardHost(cfg)})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("userctl session", zap.String("api", app.BaseURL))
	return &session{cfg: cfg, logger: logger, app: app}, nil
}

func (s *session) Close() {
	s.app.Close()
	_ = s.logger.Sync()
}

func (c *cli) dashboardHost(cfg config.Config) string {
	if c.Host != "" {
		return c.Host
	}
	return hostFromAddr(cfg.Server.Addr)
}

// loadUsers refreshes the store and tells the operator when demo data is shown.
func (s *session) loadUsers(ctx context.Context) error {
	if err := s.app.Store.RefreshAll(ctx); err != nil {
		return err
	}
	if view := s.app.Store.View(); view.DemoMode {
		fmt.Fprintln(os.Stderr, "! "+view.Advisory)
	}
	return nil
}
