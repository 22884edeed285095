package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/dmitrijs2005/gymkeeper/internal/server/users"
	"github.com/labstack/echo/v4"
)

var errEmailTaken = echo.NewHTTPError(http.StatusConflict, errorResponse{
	Message: "Email already taken",
	Errors:  map[string]string{"email": "is already taken"},
})

func (s *Server) authenticate(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	issued, err := s.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: issued.Token, Role: issued.User.Role})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	issued, err := s.users.Register(ctx, users.NewAccount{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		return errEmailTaken
	case errors.Is(err, users.ErrRoleNotAllowed):
		return echo.NewHTTPError(http.StatusBadRequest, errorResponse{Errors: map[string]string{"role": "must be one of: MEMBER TRAINER"}})
	case err != nil:
		return err
	}

	s.inbox.Push(ctx, issued.User.ID, "Welcome to the gym, "+issued.User.Firstname+"!")
	s.logger.Info(ctx, "Registered", "email", issued.User.Email, "role", issued.User.Role)
	return c.JSON(http.StatusCreated, authResponse{Token: issued.Token, Role: issued.User.Role})
}

func (s *Server) sendOtp(c echo.Context) error {
	var req sendOtpRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := s.users.SendOtp(c.Request().Context(), req.Email); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not deliver code").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) verifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	issued, err := s.users.VerifyOtp(c.Request().Context(), req.Email, req.Otp)
	if err != nil {
		if errors.Is(err, common.ErrInvalidOtp) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired code")
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: issued.Token, Role: issued.User.Role})
}

func (s *Server) currentUser(c echo.Context) error {
	return c.JSON(http.StatusOK, toProfile(userFrom(c)))
}

func (s *Server) updateCurrentUser(c echo.Context) error {
	var req updateProfileRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	issued, err := s.users.UpdateProfile(c.Request().Context(), userFrom(c).ID, users.ProfileChanges{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Avatar:    req.Avatar,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return errEmailTaken
		}
		return err
	}

	return c.JSON(http.StatusOK, updateProfileResponse{profileResponse: toProfile(issued.User), Token: issued.Token})
}

func (s *Server) listNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, toNotifications(s.inbox.List(c.Request().Context(), userFrom(c).ID)))
}

func (s *Server) markNotificationRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errorResponse{Errors: map[string]string{"id": "must be a number"}})
	}

	if err := s.inbox.MarkRead(c.Request().Context(), userFrom(c).ID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) wallet(c echo.Context) error {
	u := userFrom(c)
	return c.JSON(http.StatusOK, walletResponse{ID: u.ID, Balance: u.WalletBalance})
}

// bindValid reads the JSON body into dst and runs the echo validator on it.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	return c.Validate(dst)
}
