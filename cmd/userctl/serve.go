package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-userboard/components/userboard/gorouter"
)

const shutdownTimeout = 5 * time.Second

type serveCmd struct {
	Addr        string `help:"Dashboard listen address. Overrides server.addr."`
	MetricsAddr string `name:"metrics-addr" help:"Listen address for metrics, event streams, and the plain JSON API. Overrides server.metrics_addr; \"off\" disables the listener."`
}

// opsDisabled turns the ops listener off when given as its address.
const opsDisabled = "off"

// opsListenAddr picks the ops address from the flag, then the config. Either
// one set to "off" disables the listener.
func opsListenAddr(flag, configured string) string {
	addr := strings.TrimSpace(firstNonEmpty(flag, configured))
	if strings.EqualFold(addr, opsDisabled) {
		return ""
	}
	return addr
}

func (cmd *serveCmd) Run(ctx context.Context, root *cli) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.Close()
	addr := firstNonEmpty(cmd.Addr, s.cfg.Server.Addr)
	opsAddr := opsListenAddr(cmd.MetricsAddr, s.cfg.Server.MetricsAddr)

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: s.app.Controller,
		API:        s.app.Executor,
		Broadcast:  s.app.Broadcast,
	}); err != nil {
		return err
	}

	if err := s.app.Store.RefreshAll(ctx); err != nil {
		s.logger.Warn("initial load failed", zap.Error(err))
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("dashboard listening",
			zap.String("addr", addr),
			zap.String("path", s.app.Controller.BasePath()),
			zap.String("api", s.app.BaseURL),
		)
		return server.Serve(addr)
	})

	var ops *http.Server
	if opsAddr != "" {
		ops = &http.Server{Addr: opsAddr, Handler: s.app.OpsHandler(), ReadHeaderTimeout: 10 * time.Second}
		group.Go(func() error {
			s.logger.Info("ops listening", zap.String("addr", opsAddr))
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		s.app.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if ops != nil {
			errs = append(errs, ops.Shutdown(shutdownCtx))
		}
		errs = append(errs, server.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})
	return group.Wait()
}

// hostFromAddr turns a listen address into the host:port a browser would use.
func hostFromAddr(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
