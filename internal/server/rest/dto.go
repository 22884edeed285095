package rest

import (
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/server/notifications"
	"github.com/dmitrijs2005/gymkeeper/internal/server/users"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sendOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,len=6,numeric"`
}

type registerRequest struct {
	Firstname string `json:"firstname" validate:"required,max=64"`
	Lastname  string `json:"lastname" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Role      string `json:"role" validate:"required,oneof=MEMBER TRAINER"`
}

type updateProfileRequest struct {
	Firstname *string `json:"firstname" validate:"omitempty,min=1,max=64"`
	Lastname  *string `json:"lastname" validate:"omitempty,min=1,max=64"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
}

type authResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type profileResponse struct {
	ID            int64    `json:"id"`
	Firstname     string   `json:"firstname"`
	Lastname      string   `json:"lastname"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	Avatar        string   `json:"avatar,omitempty"`
	Enabled       bool     `json:"enabled"`
	WalletBalance *float64 `json:"walletBalance,omitempty"`
}

type updateProfileResponse struct {
	profileResponse
	Token string `json:"token,omitempty"`
}

type notificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type walletResponse struct {
	ID      int64   `json:"id"`
	Balance float64 `json:"balance"`
}

type errorResponse struct {
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// toProfile leaves the wallet balance out; clients read it from the wallet
// endpoint.
func toProfile(u *users.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		Enabled:   u.Enabled,
	}
}

func toNotifications(ns []notifications.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationResponse{ID: n.ID, Message: n.Message, Read: n.Read, CreatedAt: n.CreatedAt})
	}
	return out
}
