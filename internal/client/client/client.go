package client

import (
	"context"

	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
)

// Client is the transport-agnostic contract of the gym backend.
type Client interface {
	Close() error

	// Credential-issuing calls. They never carry the bearer header.
	Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error)
	SendOtp(ctx context.Context, email string) error
	VerifyOtp(ctx context.Context, email, otp string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)

	// Authenticated calls.
	FetchCurrentUser(ctx context.Context) (*models.UserProfile, error)
	UpdateCurrentUser(ctx context.Context, req models.UpdateProfileRequest) (*models.UpdateProfileResponse, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	GetWallet(ctx context.Context) (*models.Wallet, error)

	// SetAccessToken replaces the default bearer credential; "" removes it.
	SetAccessToken(token string)

	// Use registers an interceptor and returns the function that removes it.
	Use(i Interceptor) (remove func())
}

var _ Client = (*HTTPClient)(nil)
