package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dmitrijs2005/gymkeeper/internal/client/client"
	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/services"
	"github.com/dmitrijs2005/gymkeeper/internal/client/validation"
	"github.com/dmitrijs2005/gymkeeper/internal/logging"
	"golang.org/x/time/rate"
)

// Backend is the part of client.Client the controller drives.
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error)
	SendOtp(ctx context.Context, email string) error
	VerifyOtp(ctx context.Context, email, otp string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	FetchCurrentUser(ctx context.Context) (*models.UserProfile, error)
	UpdateCurrentUser(ctx context.Context, req models.UpdateProfileRequest) (*models.UpdateProfileResponse, error)
	GetWallet(ctx context.Context) (*models.Wallet, error)
	SetAccessToken(token string)
	Use(i client.Interceptor) (remove func())
}

const (
	defaultHydrateMaxTries   = 3
	defaultRetryInterval     = 500 * time.Millisecond
	defaultOtpResendInterval = 30 * time.Second
)

// Option customises a Controller.
type Option func(*Controller)

// WithNavigator sets the target of logout redirects.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) { c.nav = n }
}

// WithLogger sets the logger for session transitions and failures.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithHydrateRetry bounds how often Hydrate retries a profile fetch that
// failed with client.ErrUnavailable. maxTries counts all attempts.
func WithHydrateRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *Controller) {
		c.hydrateTries = max(maxTries, 1)
		if initialInterval > 0 {
			c.retryInterval = initialInterval
		}
	}
}

// WithOtpResendInterval sets the minimum gap between two SendOtp calls for
// the same email.
func WithOtpResendInterval(d time.Duration) Option {
	return func(c *Controller) { c.otpInterval = d }
}

// Controller is the single source of truth for who is logged in.
type Controller struct {
	backend  Backend
	store    services.CredentialStore
	nav      Navigator
	log      logging.Logger
	validate *validation.Validator

	hydrateTries  uint
	retryInterval time.Duration
	otpInterval   time.Duration

	removeInterceptor func()
	closeOnce         sync.Once

	hydrateOnce sync.Once
	hydrateErr  error

	otpMu       sync.Mutex
	otpLimiters map[string]*rate.Limiter

	mu         sync.Mutex
	session    Session
	credential string
	// generation changes on every logout; credential-issuing calls started
	// under an older generation are discarded.
	generation uint64
	// rotating counts UpdateProfile calls in flight. The backend may revoke
	// the credential before the rotated one arrives, so 401s for it are
	// held back until the call settles.
	rotating              int
	rejectedWhileRotating bool
	subs       map[uint64]chan Session
	nextSubID  uint64
	closed     bool
}

// New creates a Controller in the Idle state and registers its rejection
// interceptor on backend. Call Close to unregister it.
func New(backend Backend, store services.CredentialStore, opts ...Option) *Controller {
	c := &Controller{
		backend:       backend,
		store:         store,
		log:           logging.Discard(),
		validate:      validation.New(),
		hydrateTries:  defaultHydrateMaxTries,
		retryInterval: defaultRetryInterval,
		otpInterval:   defaultOtpResendInterval,
		otpLimiters:   make(map[string]*rate.Limiter),
		session:       Session{Status: StatusIdle},
		subs:          make(map[uint64]chan Session),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "session")
	c.removeInterceptor = backend.Use(&rejectionInterceptor{c: c})
	return c
}

// Close unregisters the interceptor and ends all subscriptions. The
// persisted credential is left alone.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.removeInterceptor()

		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
	})
}

// Session returns the current snapshot.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Subscribe returns a channel that always holds the latest snapshot,
// starting with the current one. Intermediate snapshots may be skipped by a
// slow reader. The returned function ends the subscription.
func (c *Controller) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.nextSubID++
	id := c.nextSubID
	c.subs[id] = ch
	ch <- c.session.clone()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				close(sub)
				delete(c.subs, id)
			}
		})
	}
}

// RoleHint returns the role of the live session, or the persisted hint while
// the session is not established. The hint is for optimistic rendering
// only; authorization always uses Session.
func (c *Controller) RoleHint(ctx context.Context) models.Role {
	if s := c.Session(); s.Status == StatusAuthenticated {
		return s.Role()
	}
	cred, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn(ctx, "failed to read role hint", "error", err)
		return ""
	}
	if !cred.Role.Valid() {
		return ""
	}
	return cred.Role
}

// Hydrate restores the session from the persisted credential. It runs at
// most once; later calls wait for the first one and return its outcome. It
// always settles the session: any failure clears the stored credential and
// resolves to Anonymous, and the returned error says why.
func (c *Controller) Hydrate(ctx context.Context) (Session, error) {
	c.hydrateOnce.Do(func() {
		c.hydrateErr = c.hydrate(ctx)
	})
	return c.Session(), c.hydrateErr
}

func (c *Controller) hydrate(ctx context.Context) error {
	c.mu.Lock()
	if c.session.Status != StatusIdle {
		// A login or logout already settled the session.
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	c.mu.Unlock()

	cred, err := c.store.Load(ctx)
	if err != nil {
		c.log.Error(ctx, "failed to load stored credential", "error", err)
		c.abandonHydrate(ctx, gen, "")
		return fmt.Errorf("hydrate: %w", err)
	}

	if cred.Token == "" {
		c.abandonHydrate(ctx, gen, "")
		return nil
	}

	if client.CredentialExpired(cred.Token) {
		c.log.Info(ctx, "stored credential already expired")
		c.abandonHydrate(ctx, gen, "")
		return fmt.Errorf("hydrate: stored credential: %w", client.ErrUnauthorized)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if c.session.Status != StatusIdle {
		c.mu.Unlock()
		return nil
	}
	c.credential = cred.Token
	c.backend.SetAccessToken(cred.Token)
	c.setLocked(ctx, Session{Status: StatusAuthenticating})
	c.mu.Unlock()

	user, err := c.fetchProfileWithRetry(ctx)
	if err != nil {
		c.log.Warn(ctx, "stored credential rejected", "error", err)
		c.abandonHydrate(ctx, gen, cred.Token)
		return fmt.Errorf("hydrate: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	if c.credential != cred.Token {
		// A login committed a newer credential meanwhile.
		return nil
	}
	if err := c.commitLocked(ctx, cred.Token, user); err != nil {
		c.credential = ""
		c.backend.SetAccessToken("")
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.Error(ctx, "failed to clear stored credential", "error", cerr)
		}
		c.setLocked(ctx, Session{Status: StatusAnonymous})
		return fmt.Errorf("hydrate: %w", err)
	}
	return nil
}

// abandonHydrate clears the credential that hydrate was working with and
// settles Anonymous, unless another operation has taken over meanwhile.
func (c *Controller) abandonHydrate(ctx context.Context, gen uint64, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.credential != token {
		return
	}
	if c.session.Status != StatusIdle && c.session.Status != StatusAuthenticating {
		return
	}
	c.credential = ""
	c.backend.SetAccessToken("")
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to clear stored credential", "error", err)
	}
	c.setLocked(ctx, Session{Status: StatusAnonymous})
}

func (c *Controller) fetchProfileWithRetry(ctx context.Context) (*models.UserProfile, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	op := func() (*models.UserProfile, error) {
		u, err := c.fetchProfile(ctx)
		if err != nil && !errors.Is(err, client.ErrUnavailable) {
			return nil, backoff.Permanent(err)
		}
		return u, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.hydrateTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.log.Warn(ctx, "profile fetch failed, retrying", "error", err, "in", d)
		}),
	)
}

// fetchProfile loads the current user and folds in the wallet balance when
// the backend has one for this account.
func (c *Controller) fetchProfile(ctx context.Context) (*models.UserProfile, error) {
	u, err := c.backend.FetchCurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	w, err := c.backend.GetWallet(ctx)
	if err != nil {
		c.log.Debug(ctx, "wallet unavailable", "error", err)
		return u, nil
	}
	balance := w.Balance
	u.WalletBalance = &balance
	return u, nil
}

// Login exchanges email and password for a credential. On failure the
// session is left unchanged and the error matches client.ErrInvalidCredentials,
// client.ErrUnavailable or a *client.ValidationError.
func (c *Controller) Login(ctx context.Context, email, password string) (Session, error) {
	if err := c.validate.Struct(models.LoginRequest{Email: email, Password: password}); err != nil {
		return c.Session(), err
	}
	return c.issue(ctx, "login", func(ctx context.Context) (*models.AuthResponse, error) {
		return c.backend.Authenticate(ctx, email, password)
	})
}

// LoginWithOtp is Login with a one-time code instead of a password.
func (c *Controller) LoginWithOtp(ctx context.Context, email, otp string) (Session, error) {
	if err := c.validate.Struct(models.VerifyOtpRequest{Email: email, Otp: otp}); err != nil {
		return c.Session(), err
	}
	return c.issue(ctx, "otp login", func(ctx context.Context) (*models.AuthResponse, error) {
		return c.backend.VerifyOtp(ctx, email, otp)
	})
}

// Register creates an account and logs into it.
func (c *Controller) Register(ctx context.Context, req models.RegisterRequest) (Session, error) {
	if err := c.validate.Struct(req); err != nil {
		return c.Session(), err
	}
	return c.issue(ctx, "register", func(ctx context.Context) (*models.AuthResponse, error) {
		return c.backend.Register(ctx, req)
	})
}

// issue runs a credential-issuing call, validates the new credential by
// fetching the profile with it, and only then commits. Concurrent calls
// commit in the order they resolve.
func (c *Controller) issue(ctx context.Context, op string, call func(context.Context) (*models.AuthResponse, error)) (Session, error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	resp, err := call(ctx)
	if err != nil {
		c.log.Info(ctx, op+" rejected", "error", err)
		return c.Session(), fmt.Errorf("%s: %w", op, err)
	}

	user, err := c.fetchProfile(client.WithAccessToken(ctx, resp.Token))
	if err != nil {
		c.log.Warn(ctx, op+": profile fetch failed", "error", err)
		return c.Session(), fmt.Errorf("%s: fetch profile: %w", op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.log.Info(ctx, op+" result discarded after logout")
		return c.session.clone(), ErrSuperseded
	}
	if err := c.commitLocked(ctx, resp.Token, user); err != nil {
		return c.session.clone(), fmt.Errorf("%s: %w", op, err)
	}
	return c.session.clone(), nil
}

// commitLocked persists token and role, makes token the default bearer and
// moves to Authenticated. Nothing changes if persisting fails.
func (c *Controller) commitLocked(ctx context.Context, token string, user *models.UserProfile) error {
	if err := c.store.Save(ctx, token, user.Role); err != nil {
		c.log.Error(ctx, "failed to persist credential", "error", err)
		return fmt.Errorf("persist credential: %w", err)
	}
	c.credential = token
	c.backend.SetAccessToken(token)
	c.setLocked(ctx, Session{Status: StatusAuthenticated, User: user})
	return nil
}

// SendOtp asks the backend to deliver a one-time code. Requests for the same
// email closer together than the resend interval fail with ErrOtpThrottled.
func (c *Controller) SendOtp(ctx context.Context, email string) error {
	if err := c.validate.Struct(models.SendOtpRequest{Email: email}); err != nil {
		return err
	}

	r := c.otpLimiter(email).Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return fmt.Errorf("%w: retry in %s", ErrOtpThrottled, d.Round(time.Second))
	}

	if err := c.backend.SendOtp(ctx, email); err != nil {
		// A failed delivery should not cost the user a resend slot.
		c.resetOtpLimiter(email)
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

func (c *Controller) resetOtpLimiter(email string) {
	c.otpMu.Lock()
	defer c.otpMu.Unlock()
	delete(c.otpLimiters, email)
}

func (c *Controller) otpLimiter(email string) *rate.Limiter {
	c.otpMu.Lock()
	defer c.otpMu.Unlock()

	l, ok := c.otpLimiters[email]
	if !ok {
		l = rate.NewLimiter(rate.Every(c.otpInterval), 1)
		c.otpLimiters[email] = l
	}
	return l
}

// UpdateProfile sends the changed fields and replaces the profile with the
// backend's answer. A rotated credential in the response is persisted and
// becomes the default bearer. The status stays Authenticated.
func (c *Controller) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (Session, error) {
	if req.Empty() {
		return c.Session(), &client.ValidationError{Message: "nothing to update"}
	}
	if err := c.validate.Struct(req); err != nil {
		return c.Session(), err
	}

	c.mu.Lock()
	if c.session.Status != StatusAuthenticated {
		c.mu.Unlock()
		return c.Session(), ErrNotAuthenticated
	}
	gen, old := c.generation, c.credential
	c.rotating++
	c.mu.Unlock()

	resp, err := c.backend.UpdateCurrentUser(ctx, req)

	c.mu.Lock()
	c.rotating--
	rejected := c.rejectedWhileRotating && c.rotating == 0
	if c.rotating == 0 {
		c.rejectedWhileRotating = false
	}

	if err != nil {
		c.mu.Unlock()
		if rejected {
			c.forceLogout(ctx, old)
		}
		return c.Session(), fmt.Errorf("update profile: %w", err)
	}
	if gen != c.generation || c.session.Status != StatusAuthenticated {
		defer c.mu.Unlock()
		return c.session.clone(), ErrSuperseded
	}

	user := resp.UserProfile
	if user.WalletBalance == nil && c.session.User != nil {
		// The balance comes from the wallet endpoint, not from the profile.
		user.WalletBalance = c.session.User.Clone().WalletBalance
	}

	token := c.credential
	if resp.Token != "" {
		token = resp.Token
	}
	rotated := token != c.credential

	if rotated || user.Role != c.session.Role() {
		err = c.commitLocked(ctx, token, &user)
	} else {
		c.setLocked(ctx, Session{Status: StatusAuthenticated, User: &user})
	}
	s := c.session.clone()
	c.mu.Unlock()

	// A 401 held back during the call rejected the credential still in use
	// unless the new one was committed.
	if rejected && (!rotated || err != nil) {
		c.forceLogout(ctx, old)
		if err == nil {
			err = client.ErrUnauthorized
		}
		return c.Session(), fmt.Errorf("update profile: %w", err)
	}
	if err != nil {
		return s, fmt.Errorf("update profile: %w", err)
	}
	return s, nil
}

// Logout clears the credential and moves to Anonymous. It is idempotent.
// notify controls only whether the redirect-to-login side effect fires.
func (c *Controller) Logout(ctx context.Context, notify bool) error {
	return c.logout(ctx, NoticeLoggedOut, notify)
}

// forceLogout ends the session after the backend rejected token, unless
// token is no longer the live credential.
func (c *Controller) forceLogout(ctx context.Context, token string) {
	c.mu.Lock()
	live := token != "" && c.credential == token
	c.mu.Unlock()
	if !live {
		return
	}

	ctx = context.WithoutCancel(ctx)
	c.log.Warn(ctx, "credential rejected, forcing logout")
	if err := c.logout(ctx, NoticeSessionExpired, true); err != nil {
		c.log.Error(ctx, "forced logout failed", "error", err)
	}
}

func (c *Controller) logout(ctx context.Context, notice Notice, notify bool) error {
	c.mu.Lock()
	c.generation++
	c.credential = ""
	c.backend.SetAccessToken("")
	err := c.store.Clear(ctx)
	c.setLocked(ctx, Session{Status: StatusAnonymous})
	c.mu.Unlock()

	if notify && c.nav != nil {
		c.nav.RedirectToLogin(notice)
	}
	if err != nil {
		c.log.Error(ctx, "failed to clear stored credential", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// setLocked installs s and pushes it to subscribers. c.mu must be held.
func (c *Controller) setLocked(ctx context.Context, s Session) {
	prev := c.session.Status
	c.session = s
	if prev != s.Status {
		c.log.Info(ctx, "session transition", "from", prev, "to", s.Status)
	}

	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.clone()
	}
}
