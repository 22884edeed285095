package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/dmitrijs2005/gymkeeper/internal/server/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const userKey = "user"

func userFrom(c echo.Context) *users.User {
	u, _ := c.Get(userKey).(*users.User)
	return u
}

// requireUser resolves the bearer token and stores the account in the
// echo context. Missing or rejected tokens get 401.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		scheme, token, ok := strings.Cut(c.Request().Header.Get(common.AuthorizationHeaderName), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		u, err := s.users.Authenticate(c.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token").SetInternal(err)
		}

		c.Set(userKey, u)
		return next(c)
	}
}

func (s *Server) logRequests() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info(c.Request().Context(), "request",
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"duration", v.Latency,
				"request_id", c.Request().Header.Get(common.RequestIDHeaderName),
			)
			return nil
		},
	})
}

// handleError renders every failure as an errorResponse. 5xx errors are
// logged, and the message of a 500 is never sent to the client.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorResponse{Message: "internal error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case errorResponse:
			body = m
		case string:
			body = errorResponse{Message: m}
		default:
			body = errorResponse{Message: http.StatusText(status)}
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", "path", c.Request().URL.Path, "error", err)
	}
	if status == http.StatusInternalServerError {
		body = errorResponse{Message: "internal error"}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error(c.Request().Context(), "failed to send error response", "error", err)
	}
}
