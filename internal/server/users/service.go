package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/dmitrijs2005/gymkeeper/internal/cryptox"
	"github.com/dmitrijs2005/gymkeeper/internal/server/auth"
	"github.com/dmitrijs2005/gymkeeper/internal/server/config"
)

// ErrRoleNotAllowed is returned when self-registration asks for a
// privileged role.
var ErrRoleNotAllowed = errors.New("role not allowed for self-registration")

// OtpSender delivers a one-time code to the account owner.
type OtpSender interface {
	SendOtp(ctx context.Context, email, code string) error
}

type OtpSenderFunc func(ctx context.Context, email, code string) error

func (f OtpSenderFunc) SendOtp(ctx context.Context, email, code string) error {
	return f(ctx, email, code)
}

// Issued is the result of every credential-issuing call.
type Issued struct {
	Token string
	User  *User
}

// NewAccount describes an account to create.
type NewAccount struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
	Role      string
}

// ProfileChanges lists the fields to update; nil means unchanged.
type ProfileChanges struct {
	Firstname *string
	Lastname  *string
	Email     *string
	Avatar    *string
}

type pendingOtp struct {
	hash    []byte
	expires time.Time
}

// Service implements registration, password and one-time-code login, token
// verification and profile updates.
type Service struct {
	repo          Repository
	sender        OtpSender
	jwtSecret     []byte
	tokenValidity time.Duration
	otpValidity   time.Duration
	now           func() time.Time

	otpMu sync.Mutex
	otps  map[string]pendingOtp
}

func NewService(repo Repository, cfg *config.Config, sender OtpSender) *Service {
	return &Service{
		repo:          repo,
		sender:        sender,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidity,
		otpValidity:   cfg.OtpValidity,
		now:           time.Now,
		otps:          make(map[string]pendingOtp),
	}
}

// Register creates a member or trainer account and logs it in.
func (s *Service) Register(ctx context.Context, acc NewAccount) (*Issued, error) {
	if acc.Role != RoleMember && acc.Role != RoleTrainer {
		return nil, ErrRoleNotAllowed
	}
	u, err := s.Provision(ctx, acc)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Provision creates an account with any role. It is used for seeding and
// bypasses the self-registration role check.
func (s *Service) Provision(ctx context.Context, acc NewAccount) (*User, error) {
	hash, err := cryptox.HashSecret([]byte(acc.Password))
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.repo.Create(ctx, &User{
		Firstname:    acc.Firstname,
		Lastname:     acc.Lastname,
		Email:        strings.TrimSpace(acc.Email),
		Role:         acc.Role,
		Enabled:      true,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*Issued, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !u.Enabled {
		return nil, common.ErrorUnauthorized
	}
	if err := cryptox.CheckSecret(u.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}
	return s.issue(u)
}

// SendOtp generates a fresh code for email and hands it to the sender.
// Unknown emails succeed silently so the endpoint does not reveal accounts.
func (s *Service) SendOtp(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}

	code, err := cryptox.GenerateOtp()
	if err != nil {
		return err
	}
	hash, err := cryptox.HashSecret([]byte(code))
	if err != nil {
		return err
	}

	s.otpMu.Lock()
	s.otps[emailKey(u.Email)] = pendingOtp{hash: hash, expires: s.now().Add(s.otpValidity)}
	s.otpMu.Unlock()

	if err := s.sender.SendOtp(ctx, u.Email, code); err != nil {
		s.otpMu.Lock()
		delete(s.otps, emailKey(u.Email))
		s.otpMu.Unlock()
		return fmt.Errorf("error sending otp: %w", err)
	}
	return nil
}

// VerifyOtp consumes a pending code. A code is good for one login only.
func (s *Service) VerifyOtp(ctx context.Context, email, code string) (*Issued, error) {
	key := emailKey(email)

	s.otpMu.Lock()
	p, ok := s.otps[key]
	expired := ok && s.now().After(p.expires)
	valid := ok && !expired && cryptox.CheckSecret(p.hash, []byte(code)) == nil
	if valid || expired {
		delete(s.otps, key)
	}
	s.otpMu.Unlock()

	if !valid {
		return nil, common.ErrInvalidOtp
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil || !u.Enabled {
		return nil, common.ErrInvalidOtp
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to its account. Tokens minted before
// the account's last version bump are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !u.Enabled || u.TokenVersion != claims.Version {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

// UpdateProfile applies changes to the account. An email change rotates the
// credential: older tokens stop working and the new one is returned.
func (s *Service) UpdateProfile(ctx context.Context, id int64, ch ProfileChanges) (*Issued, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rotate := false
	if ch.Firstname != nil {
		u.Firstname = *ch.Firstname
	}
	if ch.Lastname != nil {
		u.Lastname = *ch.Lastname
	}
	if ch.Avatar != nil {
		u.Avatar = *ch.Avatar
	}
	if ch.Email != nil && emailKey(*ch.Email) != emailKey(u.Email) {
		u.Email = strings.TrimSpace(*ch.Email)
		u.TokenVersion++
		rotate = true
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if !rotate {
		return &Issued{User: u}, nil
	}
	return s.issue(u)
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) issue(u *User) (*Issued, error) {
	token, err := auth.GenerateToken(u.ID, u.Role, u.TokenVersion, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Issued{Token: token, User: u}, nil
}
