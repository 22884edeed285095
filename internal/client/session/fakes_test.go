package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gymkeeper/internal/client/client"
	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/services"
)

// ---- credential store ----

type memStore struct {
	mu   sync.Mutex
	cred services.StoredCredential

	loadErr  error
	saveErr  error
	clearErr error

	saves  int
	clears int
}

func (s *memStore) Load(ctx context.Context) (services.StoredCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return services.StoredCredential{}, s.loadErr
	}
	return s.cred, nil
}

func (s *memStore) Save(ctx context.Context, token string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.cred = services.StoredCredential{Token: token, Role: role}
	return nil
}

func (s *memStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cred = services.StoredCredential{}
	return nil
}

func (s *memStore) get() services.StoredCredential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// ---- backend ----

// fakeBackend implements Backend for unit tests of the Controller.
type fakeBackend struct {
	mu sync.Mutex

	// email -> password, email -> token issued on success
	passwords map[string]string
	otps      map[string]string
	issued    map[string]string
	// token -> profile returned by FetchCurrentUser
	profiles map[string]*models.UserProfile
	wallets  map[string]float64

	// authenticate reports on waiting, then blocks on gates[email] when present
	gates   map[string]chan struct{}
	waiting chan string

	// FetchCurrentUser fails with ErrUnavailable this many times first
	unavailable int
	fetchErr    error

	registerErr error
	sendOtpErr  error
	updateResp  *models.UpdateProfileResponse
	updateErr   error

	defaultToken string
	fetchCalls   int
	sendOtpCalls int
	interceptors int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		passwords: map[string]string{},
		otps:      map[string]string{},
		issued:    map[string]string{},
		profiles:  map[string]*models.UserProfile{},
		wallets:   map[string]float64{},
		gates:     map[string]chan struct{}{},
		waiting:   make(chan string, 16),
	}
}

func (f *fakeBackend) addUser(email, password, token string, role models.Role) *models.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.UserProfile{ID: int64(len(f.profiles) + 1), Firstname: "Test", Lastname: string(role), Email: email, Role: role, Enabled: true}
	f.passwords[email] = password
	f.issued[email] = token
	f.profiles[token] = u
	return u.Clone()
}

func (f *fakeBackend) token(ctx context.Context) string {
	if tok, ok := client.AccessTokenFromContext(ctx); ok {
		return tok
	}
	return f.defaultToken
}

func (f *fakeBackend) Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	f.mu.Lock()
	gate := f.gates[email]
	f.mu.Unlock()
	if gate != nil {
		f.waiting <- email
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.passwords[email]; !ok || p != password {
		return nil, client.ErrInvalidCredentials
	}
	tok := f.issued[email]
	return &models.AuthResponse{Token: tok, Role: f.profiles[tok].Role}, nil
}

func (f *fakeBackend) SendOtp(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendOtpCalls++
	return f.sendOtpErr
}

func (f *fakeBackend) VerifyOtp(ctx context.Context, email, otp string) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if want, ok := f.otps[email]; !ok || want != otp {
		return nil, client.ErrInvalidCredentials
	}
	return &models.AuthResponse{Token: f.issued[email]}, nil
}

func (f *fakeBackend) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if _, taken := f.passwords[req.Email]; taken {
		return nil, &client.ValidationError{Message: "Email already taken"}
	}
	tok := "tok-" + req.Email
	f.passwords[req.Email] = req.Password
	f.issued[req.Email] = tok
	f.profiles[tok] = &models.UserProfile{
		ID: int64(len(f.profiles) + 1), Firstname: req.Firstname, Lastname: req.Lastname,
		Email: req.Email, Role: req.Role, Enabled: true,
	}
	return &models.AuthResponse{Token: tok, Role: req.Role}, nil
}

func (f *fakeBackend) FetchCurrentUser(ctx context.Context) (*models.UserProfile, error) {
	tok := f.token(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.unavailable > 0 {
		f.unavailable--
		return nil, client.ErrUnavailable
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	u, ok := f.profiles[tok]
	if !ok || tok == "" {
		return nil, client.ErrUnauthorized
	}
	return u.Clone(), nil
}

func (f *fakeBackend) UpdateCurrentUser(ctx context.Context, req models.UpdateProfileRequest) (*models.UpdateProfileResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResp, nil
}

func (f *fakeBackend) GetWallet(ctx context.Context) (*models.Wallet, error) {
	tok := f.token(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.wallets[tok]
	if !ok {
		return nil, client.ErrUnknown
	}
	return &models.Wallet{ID: 1, Balance: b}, nil
}

func (f *fakeBackend) SetAccessToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultToken = token
}

func (f *fakeBackend) Use(i client.Interceptor) func() {
	f.mu.Lock()
	f.interceptors++
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.interceptors--
			f.mu.Unlock()
		})
	}
}

func (f *fakeBackend) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defaultToken
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

// ---- navigator ----

type recordingNavigator struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNavigator) RedirectToLogin(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNavigator) got() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}
