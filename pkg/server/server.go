// Package server runs the HTTP front end over the filename filter and the
// configured output source.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/beam-cloud/hazardkit/pkg/api/v1"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

type Server struct {
	Config     types.ServerConfig
	source     sources.Source
	echo       *echo.Echo
	httpServer *http.Server

	baseRouteGroup *echo.Group
}

// NewServer builds the echo router. src may be nil.
func NewServer(cfg types.ServerConfig, src sources.Source) *Server {
	s := &Server{Config: cfg, source: src}
	s.initHTTP()
	return s
}

func (s *Server) initHTTP() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	if s.Config.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.Config.CORS.AllowedOrigins,
		AllowHeaders: s.Config.CORS.AllowedHeaders,
		AllowMethods: s.Config.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())

	s.echo = e
	s.httpServer = &http.Server{
		Addr:    s.Addr(),
		Handler: e,
	}

	s.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)
	apiv1.NewHealthGroup(s.baseRouteGroup.Group("/health"), s.source)

	outputs := s.baseRouteGroup.Group("/outputs")
	outputs.Use(apiv1.NewTokenAuthMiddleware(s.Config.AuthToken))
	apiv1.NewOutputsGroup(outputs, s.source)
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Config.Host, fmt.Sprint(s.Config.Port))
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and serves until SIGINT, SIGTERM
// or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs the HTTP server on lis and shuts it down gracefully once ctx
// is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info().Str("addr", lis.Addr().String()).Msg("http server running")
		if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down http server")
		return s.shutdown()
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}

func (s *Server) shutdown() error {
	ctx := context.Background()
	if s.Config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.ShutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
