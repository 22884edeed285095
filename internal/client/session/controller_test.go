package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/client/client"
	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, b *fakeBackend, s *memStore, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithHydrateRetry(3, time.Millisecond)}, opts...)
	c := New(b, s, opts...)
	t.Cleanup(c.Close)
	return c
}

func anonymous() Session { return Session{Status: StatusAnonymous} }

func TestHydrate_NoCredential_NoNetworkCall(t *testing.T) {
	b := newFakeBackend()
	c := newController(t, b, &memStore{})

	s, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, anonymous(), s)
	assert.Nil(t, s.User)
	assert.Zero(t, b.calls(), "FetchCurrentUser must not be called without a credential")
}

func TestHydrate_AfterLoginRestoresSameSession(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleTrainer)
	b.wallets["tok-ann"] = 42.5

	first := newController(t, b, store)
	_, err := first.Hydrate(ctx)
	require.NoError(t, err)
	afterLogin, err := first.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, afterLogin.Status)
	first.Close()

	// Fresh boot: new controller and backend client, same durable storage.
	b.SetAccessToken("")
	second := newController(t, b, store)
	rehydrated, err := second.Hydrate(ctx)
	require.NoError(t, err)

	assert.Equal(t, afterLogin, rehydrated)
	assert.Equal(t, "tok-ann", b.currentToken())
}

func TestHydrate_UnauthorizedClearsCredential(t *testing.T) {
	store := &memStore{cred: services.StoredCredential{Token: "revoked", Role: models.RoleAdmin}}
	b := newFakeBackend()
	c := newController(t, b, store)

	s, err := c.Hydrate(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, anonymous(), s)
	assert.Equal(t, services.StoredCredential{}, store.get(), "no stale token left behind")
	assert.Empty(t, b.currentToken())
	assert.Equal(t, 1, b.calls(), "rejections are not retried")
}

func TestHydrate_RetriesWhileUnavailable(t *testing.T) {
	store := &memStore{}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	store.cred = services.StoredCredential{Token: "tok-ann", Role: models.RoleMember}
	b.unavailable = 2

	c := newController(t, b, store)
	s, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, 3, b.calls())
}

func TestHydrate_FailsClosedWhenUnavailable(t *testing.T) {
	store := &memStore{cred: services.StoredCredential{Token: "tok-ann"}}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	b.unavailable = 100

	c := newController(t, b, store)
	s, err := c.Hydrate(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, anonymous(), s)
	assert.Empty(t, store.get().Token)
	assert.Equal(t, 3, b.calls())
}

func TestHydrate_ExpiredJWTSkipsNetwork(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	store := &memStore{cred: services.StoredCredential{Token: expired, Role: models.RoleMember}}
	b := newFakeBackend()
	c := newController(t, b, store)

	s, err := c.Hydrate(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, anonymous(), s)
	assert.Zero(t, b.calls())
	assert.Empty(t, store.get().Token)
}

func TestHydrate_RunsOnce(t *testing.T) {
	store := &memStore{cred: services.StoredCredential{Token: "tok-ann"}}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, store)
	ctx := context.Background()

	_, err := c.Hydrate(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx, false))

	s, err := c.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, anonymous(), s, "a second hydrate must not resurrect the session")
	assert.Equal(t, 1, b.calls())
}

func TestHydrate_LoadErrorFailsClosed(t *testing.T) {
	store := &memStore{loadErr: errors.New("disk gone")}
	c := newController(t, newFakeBackend(), store)

	s, err := c.Hydrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, anonymous(), s)
}

func TestLogin_InvalidCredentials_SessionUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	b.addUser("a@x.com", "good", "tok-a", models.RoleMember)
	c := newController(t, b, store)
	_, err := c.Hydrate(ctx)
	require.NoError(t, err)

	s, err := c.Login(ctx, "a@x.com", "bad")
	require.ErrorIs(t, err, client.ErrInvalidCredentials)
	require.NotErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, anonymous(), s)
	assert.Equal(t, anonymous(), c.Session())
	assert.Zero(t, store.saves, "no credential persisted")
	assert.Empty(t, b.currentToken())
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	want := b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleAdmin)
	c := newController(t, b, store)

	s, err := c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, Session{Status: StatusAuthenticated, User: want}, s)
	assert.Equal(t, services.StoredCredential{Token: "tok-ann", Role: models.RoleAdmin}, store.get())
	assert.Equal(t, "tok-ann", b.currentToken())
}

func TestLogin_NetworkErrorIsDistinguishable(t *testing.T) {
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	b.unavailable = 1
	c := newController(t, b, &memStore{})

	s, err := c.Login(context.Background(), "ann@gym.test", "secret")
	require.ErrorIs(t, err, client.ErrUnavailable)
	require.NotErrorIs(t, err, client.ErrInvalidCredentials)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, b.currentToken(), "a credential that failed validation is not attached")
}

func TestLogin_ValidatesInput(t *testing.T) {
	b := newFakeBackend()
	c := newController(t, b, &memStore{})

	_, err := c.Login(context.Background(), "not-an-email", "")
	var ve *client.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")
}

func TestLogin_PersistFailureLeavesSessionUnchanged(t *testing.T) {
	store := &memStore{saveErr: errors.New("read-only")}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, store)
	_, _ = c.Hydrate(context.Background())

	s, err := c.Login(context.Background(), "ann@gym.test", "secret")
	require.Error(t, err)
	assert.Equal(t, anonymous(), s)
	assert.Empty(t, b.currentToken())
}

func TestLogin_FoldsWalletBalance(t *testing.T) {
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	b.wallets["tok-ann"] = 99
	c := newController(t, b, &memStore{})

	s, err := c.Login(context.Background(), "ann@gym.test", "secret")
	require.NoError(t, err)
	require.NotNil(t, s.User.WalletBalance)
	assert.Equal(t, 99.0, *s.User.WalletBalance)
}

func TestLoginWithOtp(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	b.otps["ann@gym.test"] = "123456"
	c := newController(t, b, &memStore{})

	_, err := c.LoginWithOtp(ctx, "ann@gym.test", "000000")
	require.ErrorIs(t, err, client.ErrInvalidCredentials)

	s, err := c.LoginWithOtp(ctx, "ann@gym.test", "123456")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "ann@gym.test", s.User.Email)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	c := newController(t, b, store)

	req := models.RegisterRequest{
		Firstname: "Tom", Lastname: "Hill", Email: "tom@gym.test", Password: "secret1", Role: models.RoleTrainer,
	}
	s, err := c.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, models.RoleTrainer, s.Role())
	assert.Equal(t, models.RoleTrainer, store.get().Role)

	require.NoError(t, c.Logout(ctx, false))
	_, err = c.Register(ctx, req)
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, anonymous(), c.Session())
}

func TestRegister_RejectsPrivilegedRole(t *testing.T) {
	b := newFakeBackend()
	c := newController(t, b, &memStore{})

	_, err := c.Register(context.Background(), models.RegisterRequest{
		Firstname: "Eve", Lastname: "X", Email: "eve@gym.test", Password: "secret1", Role: models.RoleSuperAdmin,
	})
	var ve *client.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "role")
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, store)

	_, err := c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx, false))
	first := c.Session()
	require.NoError(t, c.Logout(ctx, false))

	assert.Equal(t, anonymous(), first)
	assert.Equal(t, first, c.Session())
	assert.Equal(t, 2, store.clears, "storage is cleared every time")
	assert.Equal(t, services.StoredCredential{}, store.get())
	assert.Empty(t, b.currentToken())
}

func TestLogout_NotifyControlsRedirect(t *testing.T) {
	ctx := context.Background()
	nav := &recordingNavigator{}
	c := newController(t, newFakeBackend(), &memStore{}, WithNavigator(nav))

	require.NoError(t, c.Logout(ctx, false))
	assert.Empty(t, nav.got())

	require.NoError(t, c.Logout(ctx, true))
	assert.Equal(t, []Notice{NoticeLoggedOut}, nav.got())
}

func TestLogout_ClearErrorIsReported(t *testing.T) {
	store := &memStore{clearErr: errors.New("locked")}
	c := newController(t, newFakeBackend(), store)

	err := c.Logout(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, anonymous(), c.Session())
}

func TestLogin_DiscardedWhenLogoutWins(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	gate := make(chan struct{})
	b.gates["ann@gym.test"] = gate
	c := newController(t, b, store)

	type result struct {
		s   Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := c.Login(ctx, "ann@gym.test", "secret")
		done <- result{s, err}
	}()

	// Log out while the login is waiting on the backend.
	<-b.waiting
	require.NoError(t, c.Logout(ctx, false))
	close(gate)

	r := <-done
	require.ErrorIs(t, r.err, ErrSuperseded)
	assert.Equal(t, anonymous(), r.s)
	assert.Equal(t, anonymous(), c.Session())
	assert.Empty(t, store.get().Token)
	assert.Empty(t, b.currentToken())
}

func TestLogin_LastResolvedWins(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.addUser("a@gym.test", "pa", "tok-a", models.RoleMember)
	b.addUser("b@gym.test", "pb", "tok-b", models.RoleTrainer)
	gateA, gateB := make(chan struct{}), make(chan struct{})
	b.gates["a@gym.test"] = gateA
	b.gates["b@gym.test"] = gateB
	c := newController(t, b, &memStore{})

	errs := make(chan error, 2)
	go func() { _, err := c.Login(ctx, "a@gym.test", "pa"); errs <- err }()
	go func() { _, err := c.Login(ctx, "b@gym.test", "pb"); errs <- err }()

	close(gateB)
	require.NoError(t, <-errs)
	require.Equal(t, "b@gym.test", c.Session().User.Email)

	close(gateA)
	require.NoError(t, <-errs)
	assert.Equal(t, "a@gym.test", c.Session().User.Email)
	assert.Equal(t, "tok-a", b.currentToken())
}

func TestUpdateProfile_RotatesCredential(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	u := b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	b.wallets["tok-ann"] = 10
	c := newController(t, b, store)
	_, err := c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)

	updated := *u
	updated.Email = "ann.lee@gym.test"
	b.updateResp = &models.UpdateProfileResponse{UserProfile: updated, Token: "tok-rotated"}

	email := "ann.lee@gym.test"
	s, err := c.UpdateProfile(ctx, models.UpdateProfileRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "ann.lee@gym.test", s.User.Email)
	require.NotNil(t, s.User.WalletBalance, "balance carried over")
	assert.Equal(t, 10.0, *s.User.WalletBalance)
	assert.Equal(t, "tok-rotated", store.get().Token)
	assert.Equal(t, "tok-rotated", b.currentToken())
}

func TestUpdateProfile_WithoutRotation(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	b := newFakeBackend()
	u := b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, store)
	_, err := c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)
	saves := store.saves

	updated := *u
	updated.Firstname = "Anna"
	b.updateResp = &models.UpdateProfileResponse{UserProfile: updated}

	name := "Anna"
	s, err := c.UpdateProfile(ctx, models.UpdateProfileRequest{Firstname: &name})
	require.NoError(t, err)
	assert.Equal(t, "Anna", s.User.Firstname)
	assert.Equal(t, "tok-ann", b.currentToken())
	assert.Equal(t, saves, store.saves, "nothing to persist")
}

func TestUpdateProfile_Errors(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, &memStore{})

	name := "Anna"
	_, err := c.UpdateProfile(ctx, models.UpdateProfileRequest{Firstname: &name})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.UpdateProfile(ctx, models.UpdateProfileRequest{})
	require.ErrorIs(t, err, client.ErrValidation)

	_, err = c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)
	before := c.Session()

	b.updateErr = &client.ValidationError{Fields: map[string]string{"email": "already registered"}}
	email := "taken@gym.test"
	s, err := c.UpdateProfile(ctx, models.UpdateProfileRequest{Email: &email})
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, before, s)
}

func TestSendOtp_Throttled(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newController(t, b, &memStore{}, WithOtpResendInterval(time.Hour))

	require.NoError(t, c.SendOtp(ctx, "ann@gym.test"))
	require.ErrorIs(t, c.SendOtp(ctx, "ann@gym.test"), ErrOtpThrottled)
	require.NoError(t, c.SendOtp(ctx, "bob@gym.test"), "limits are per email")
	assert.Equal(t, 2, b.sendOtpCalls)
}

func TestSendOtp_FailureDoesNotConsumeSlot(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.sendOtpErr = client.ErrUnavailable
	c := newController(t, b, &memStore{}, WithOtpResendInterval(time.Hour))

	require.ErrorIs(t, c.SendOtp(ctx, "ann@gym.test"), client.ErrUnavailable)
	b.sendOtpErr = nil
	require.NoError(t, c.SendOtp(ctx, "ann@gym.test"))
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, &memStore{})

	ch, cancel := c.Subscribe()
	assert.Equal(t, StatusIdle, (<-ch).Status)

	_, err := c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)
	s := <-ch
	assert.Equal(t, StatusAuthenticated, s.Status)

	// Snapshots are copies.
	s.User.Email = "mutated"
	assert.Equal(t, "ann@gym.test", c.Session().User.Email)

	require.NoError(t, c.Logout(ctx, false))
	assert.Equal(t, anonymous(), <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribe_LatestValueWins(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, &memStore{})

	ch, cancel := c.Subscribe()
	defer cancel()

	_, err := c.Login(ctx, "ann@gym.test", "secret")
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx, false))

	assert.Equal(t, anonymous(), <-ch)
}

func TestRoleHint(t *testing.T) {
	ctx := context.Background()
	store := &memStore{cred: services.StoredCredential{Token: "tok-ann", Role: models.RoleTrainer}}
	b := newFakeBackend()
	b.addUser("ann@gym.test", "secret", "tok-ann", models.RoleMember)
	c := newController(t, b, store)

	assert.Equal(t, models.RoleTrainer, c.RoleHint(ctx), "stored hint before hydrate")

	_, err := c.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, c.RoleHint(ctx), "live role once authenticated")
	assert.Equal(t, models.RoleMember, store.get().Role, "hint refreshed from the profile")

	require.NoError(t, c.Logout(ctx, false))
	assert.Empty(t, c.RoleHint(ctx))
}

func TestClose_UnregistersInterceptor(t *testing.T) {
	b := newFakeBackend()
	for i := 0; i < 3; i++ {
		c := New(b, &memStore{})
		c.Close()
		c.Close()
	}
	assert.Zero(t, b.interceptors, "interceptors must not stack across controllers")

	c := New(b, &memStore{})
	defer c.Close()
	assert.Equal(t, 1, b.interceptors)
}
