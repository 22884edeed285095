// Package rest exposes the development backend over the gym REST API.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/logging"
	"github.com/dmitrijs2005/gymkeeper/internal/server/notifications"
	"github.com/dmitrijs2005/gymkeeper/internal/server/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodySize     = "1M"
)

type Server struct {
	address string
	users   *users.Service
	inbox   *notifications.Store
	logger  logging.Logger
	e       *echo.Echo
}

func NewServer(a string, l logging.Logger, us *users.Service, inbox *notifications.Store) *Server {
	s := &Server{
		address: a,
		logger:  l.With("module", "rest_server"),
		users:   us,
		inbox:   inbox,
	}
	s.e = s.newEcho()
	return s
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = s.handleError
	e.Server.ReadHeaderTimeout = 5 * time.Second

	e.Use(s.logRequests())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/authenticate", s.authenticate)
	auth.POST("/register", s.register)
	auth.POST("/send-otp", s.sendOtp)
	auth.POST("/verify-otp", s.verifyOtp)

	me := api.Group("/users", s.requireUser)
	me.GET("/me", s.currentUser)
	me.PUT("/me", s.updateCurrentUser)

	inbox := api.Group("/notifications", s.requireUser)
	inbox.GET("", s.listNotifications)
	inbox.PUT("/:id/read", s.markNotificationRead)

	wallet := api.Group("/wallet", s.requireUser)
	wallet.GET("", s.wallet)

	return e
}

// Handler returns the routed API with logging and authentication applied.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info(ctx, "Starting REST server", "address", s.address)
		if err := s.e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info(ctx, "Stopping REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
