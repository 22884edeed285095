package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/client/client"
	"github.com/dmitrijs2005/gymkeeper/internal/client/config"
	"github.com/dmitrijs2005/gymkeeper/internal/client/notifications"
	"github.com/dmitrijs2005/gymkeeper/internal/client/routes"
	"github.com/dmitrijs2005/gymkeeper/internal/client/services"
	"github.com/dmitrijs2005/gymkeeper/internal/client/session"
	"github.com/dmitrijs2005/gymkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

const defaultRetryInterval = 500 * time.Millisecond

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	api     *client.HTTPClient
	session *session.Controller
	policy  *routes.Policy
	poller  *notifications.Poller
	printer *Printer
	reader  *bufio.Reader

	mu    sync.Mutex
	route routes.Route
}

// NewApp opens the credential store at c.StorePath and connects the session
// controller to the backend at c.ServerBaseURL. Logs go to stderr so they
// do not interleave with the prompt.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger, err := logging.New(c.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.StorePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerBaseURL, client.WithTimeout(c.RequestTimeout))
	return newApp(c, logger, db, api, os.Stdin, NewPrinter(os.Stdout, ResolveColors(os.Stdout))), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, api *client.HTTPClient, in io.Reader, printer *Printer) *App {
	a := &App{
		config:  c,
		logger:  logger,
		db:      db,
		api:     api,
		policy:  routes.DefaultPolicy(),
		printer: printer,
		reader:  bufio.NewReader(in),
		route:   routes.Root,
	}

	a.session = session.New(api, services.NewCredentialStore(db),
		session.WithNavigator(a),
		session.WithLogger(logger),
		session.WithHydrateRetry(c.HydrateMaxTries, defaultRetryInterval),
		session.WithOtpResendInterval(c.OtpResendInterval),
	)
	a.poller = notifications.NewPoller(api, c.NotificationPollInterval,
		notifications.WithLogger(logger),
		notifications.WithUnreadHook(func(unread int) {
			a.printer.Info("You have %d unread notification(s). Type 'notifications' to see them.", unread)
		}),
	)
	return a
}

// RedirectToLogin implements session.Navigator.
func (a *App) RedirectToLogin(notice session.Notice) {
	if notice == session.NoticeSessionExpired {
		a.printer.Warning("%s", notice.Message())
	} else {
		a.printer.Success("%s", notice.Message())
	}
	a.setRoute(routes.Login)
}

func (a *App) currentRoute() routes.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) setRoute(r routes.Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.route = r
}

// Run restores the previous session, then serves the REPL while the
// notification poller follows the session in the background. It returns
// when the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.printer.Println("Welcome to gymkeeper (type 'help' for commands)")

	if _, err := a.session.Hydrate(ctx); err != nil {
		a.logger.Warn(ctx, "previous session not restored", "error", err)
	}
	a.open(routes.Root)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.poller.Run(gctx, a.session)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		runREPL(gctx, a, a.reader)
		return nil
	})
	return g.Wait()
}

// Close releases the controller, the HTTP client and the store. The
// persisted credential survives for the next run.
func (a *App) Close() {
	a.session.Close()
	_ = a.api.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error(context.Background(), "close store", "error", err)
	}
}

func (a *App) prompt() string {
	s := a.session.Session()
	who := "guest"
	if s.User != nil {
		who = fmt.Sprintf("%s %s", s.User.Email, s.User.Role)
	}
	return fmt.Sprintf("gk (%s) %s> ", who, a.currentRoute())
}
