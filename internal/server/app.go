// Package server wires and runs the gymkeeper development backend: an
// in-memory implementation of the gym REST API for local use and tests.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/dmitrijs2005/gymkeeper/internal/logging"
	"github.com/dmitrijs2005/gymkeeper/internal/server/config"
	"github.com/dmitrijs2005/gymkeeper/internal/server/notifications"
	"github.com/dmitrijs2005/gymkeeper/internal/server/rest"
	"github.com/dmitrijs2005/gymkeeper/internal/server/storage"
	"github.com/dmitrijs2005/gymkeeper/internal/server/users"
)

// SeedAccount is a demo account created at startup.
type SeedAccount struct {
	users.NewAccount
	WalletBalance float64
}

// DemoAccounts are created on every start, one per role.
var DemoAccounts = []SeedAccount{
	{NewAccount: users.NewAccount{Firstname: "Sam", Lastname: "Super", Email: "super@gym.local", Password: "super123", Role: users.RoleSuperAdmin}},
	{NewAccount: users.NewAccount{Firstname: "Ada", Lastname: "Admin", Email: "admin@gym.local", Password: "admin123", Role: users.RoleAdmin}},
	{NewAccount: users.NewAccount{Firstname: "Tom", Lastname: "Trainer", Email: "trainer@gym.local", Password: "trainer123", Role: users.RoleTrainer}},
	{NewAccount: users.NewAccount{Firstname: "Mia", Lastname: "Member", Email: "member@gym.local", Password: "member123", Role: users.RoleMember}, WalletBalance: 50},
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	repo   users.Repository
	users  *users.Service
	inbox  *notifications.Store
}

// NewApp builds the backend from c. Logs go to w. Accounts live in memory
// unless c.DatabaseDSN names a SQLite database.
func NewApp(c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, w)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if c.SecretKey == "" {
		key, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("secret key generation error: %w", err)
		}
		c.SecretKey = key
		logger.Warn(context.Background(), "No secret key configured, tokens will not survive a restart")
	}

	app := &App{
		config: c,
		logger: logger,
		inbox:  notifications.NewStore(),
	}

	if c.DatabaseDSN == "" {
		app.repo = users.NewMemoryRepository()
	} else {
		db, err := storage.Open(context.Background(), c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("storage init error: %w", err)
		}
		app.db = db
		app.repo = users.NewSQLiteRepository(db)
	}

	app.users = users.NewService(app.repo, c, users.OtpSenderFunc(app.logOtp))
	return app, nil
}

// logOtp stands in for e-mail delivery: the code is written to the log.
func (app *App) logOtp(ctx context.Context, email, code string) error {
	app.logger.Info(ctx, "one-time code issued", "email", email, "otp", code)
	return nil
}

// Seed creates accounts and greets each of them with a notification.
// Accounts that already exist are left as they are.
func (app *App) Seed(ctx context.Context, accounts []SeedAccount) error {
	for _, acc := range accounts {
		u, err := app.users.Provision(ctx, acc.NewAccount)
		if errors.Is(err, common.ErrorAlreadyExists) {
			app.logger.Info(ctx, "Account already exists", "email", acc.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", acc.Email, err)
		}
		if acc.WalletBalance != 0 {
			u.WalletBalance = acc.WalletBalance
			if err := app.repo.Update(ctx, u); err != nil {
				return fmt.Errorf("seed %s: %w", acc.Email, err)
			}
		}
		app.inbox.Push(ctx, u.ID, "Welcome back, "+u.Firstname+"!")
		app.logger.Info(ctx, "Seeded account", "email", u.Email, "role", u.Role)
	}
	return nil
}

// Close releases the database, if any.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run seeds demo accounts and serves until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer func() {
		if err := app.Close(); err != nil {
			app.logger.Error(ctx, "close storage", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.Seed(ctx, DemoAccounts); err != nil {
		return err
	}

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := rest.NewServer(app.config.ListenAddr, app.logger, app.users, app.inbox)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()
	return runErr
}
