package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// maxErrorBody caps how much of an error response is read for diagnostics.
const maxErrorBody = 64 << 10

// HTTPClient talks to the gym REST backend. It owns the default bearer
// credential (the equivalent of a default Authorization header) and an
// interceptor chain that sees every round trip.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	chain   *interceptorChain

	mu    sync.RWMutex
	token *oauth2.Token
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithTransport replaces the innermost transport (tests use httptest's).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.chain.base = rt }
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		chain:   newInterceptorChain(http.DefaultTransport),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{Transport: c.chain}
	return c
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Use(i Interceptor) func() {
	return c.chain.use(i)
}

func (c *HTTPClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.token = nil
		return
	}
	c.token = NewToken(token)
}

// AccessToken returns the current default credential or "".
func (c *HTTPClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

func (c *HTTPClient) bearerFor(ctx context.Context) *oauth2.Token {
	if tok, ok := AccessTokenFromContext(ctx); ok {
		if tok == "" {
			return nil
		}
		return NewToken(tok)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, common.PathAuthenticate, false, req, &resp); err != nil {
		return nil, err
	}
	return checkAuthResponse(&resp)
}

func (c *HTTPClient) SendOtp(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, common.PathSendOtp, false, models.SendOtpRequest{Email: email}, nil)
}

func (c *HTTPClient) VerifyOtp(ctx context.Context, email, otp string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.VerifyOtpRequest{Email: email, Otp: otp}
	if err := c.do(ctx, http.MethodPost, common.PathVerifyOtp, false, req, &resp); err != nil {
		return nil, err
	}
	return checkAuthResponse(&resp)
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, common.PathRegister, false, req, &resp); err != nil {
		return nil, err
	}
	return checkAuthResponse(&resp)
}

func (c *HTTPClient) FetchCurrentUser(ctx context.Context) (*models.UserProfile, error) {
	var u models.UserProfile
	if err := c.do(ctx, http.MethodGet, common.PathCurrentUser, true, nil, &u); err != nil {
		return nil, err
	}
	if err := checkProfile(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) UpdateCurrentUser(ctx context.Context, req models.UpdateProfileRequest) (*models.UpdateProfileResponse, error) {
	var resp models.UpdateProfileResponse
	if err := c.do(ctx, http.MethodPut, common.PathCurrentUser, true, req, &resp); err != nil {
		return nil, err
	}
	if err := checkProfile(&resp.UserProfile); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var ns []models.Notification
	if err := c.do(ctx, http.MethodGet, common.PathNotifications, true, nil, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

func (c *HTTPClient) MarkNotificationRead(ctx context.Context, id int64) error {
	path := common.PathNotifications + "/" + strconv.FormatInt(id, 10) + "/read"
	return c.do(ctx, http.MethodPut, path, true, nil, nil)
}

func (c *HTTPClient) GetWallet(ctx context.Context) (*models.Wallet, error) {
	var w models.Wallet
	if err := c.do(ctx, http.MethodGet, common.PathWallet, true, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func checkAuthResponse(resp *models.AuthResponse) (*models.AuthResponse, error) {
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: malformed response: empty token", ErrUnknown)
	}
	return resp, nil
}

func checkProfile(u *models.UserProfile) error {
	if u.Email == "" || !u.Role.Valid() {
		return fmt.Errorf("%w: malformed profile (email=%q role=%q)", ErrUnknown, u.Email, u.Role)
	}
	return nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// authed requests carry the bearer credential when one is present.
func (c *HTTPClient) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if authed {
		if tok := c.bearerFor(ctx); tok != nil {
			tok.SetAuthHeader(req)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return mapStatus(path, resp.StatusCode, b)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrUnknown, err)
	}
	return nil
}

func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// isCredentialCheck reports whether path verifies user-supplied secrets, in
// which case 401/403 means bad credentials rather than a stale session.
func isCredentialCheck(path string) bool {
	return path == common.PathAuthenticate || path == common.PathVerifyOtp
}

func mapStatus(path string, code int, body []byte) error {
	switch {
	case (code == http.StatusUnauthorized || code == http.StatusForbidden) && isCredentialCheck(path):
		return ErrInvalidCredentials
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusBadRequest, code == http.StatusConflict, code == http.StatusUnprocessableEntity:
		ve := &ValidationError{}
		if err := json.Unmarshal(body, ve); err != nil || (ve.Message == "" && len(ve.Fields) == 0) {
			ve.Message = strings.TrimSpace(string(body))
		}
		return ve
	case code == http.StatusBadGateway, code == http.StatusServiceUnavailable, code == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnknown, code, strings.TrimSpace(string(body)))
	}
}
