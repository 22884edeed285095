// Package notifications keeps the user's notification list fresh while a
// session is authenticated.
package notifications

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/session"
	"github.com/dmitrijs2005/gymkeeper/internal/logging"
)

// Client is the part of the backend client the poller needs.
type Client interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Feed delivers session snapshots; *session.Controller implements it.
type Feed interface {
	Subscribe() (<-chan session.Session, func())
}

// Poller lists notifications every interval while the session is
// Authenticated and stops as soon as it is not.
type Poller struct {
	client   Client
	interval time.Duration
	log      logging.Logger
	onUnread func(unread int)

	mu     sync.RWMutex
	latest []models.Notification
}

type Option func(*Poller)

func WithLogger(l logging.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithUnreadHook registers fn to be called whenever the unread count grows.
func WithUnreadHook(fn func(unread int)) Option {
	return func(p *Poller) { p.onUnread = fn }
}

func NewPoller(c Client, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{client: c, interval: interval, log: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run follows feed until ctx is done or the feed ends. Polling starts on
// entry to Authenticated and is cancelled on exit from it.
func (p *Poller) Run(ctx context.Context, feed Feed) error {
	snapshots, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc
	)
	stop := func() {
		if cancel == nil {
			return
		}
		cancel()
		wg.Wait()
		cancel = nil
		p.reset()
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s, ok := <-snapshots:
			if !ok {
				return nil
			}
			if s.Status != session.StatusAuthenticated {
				stop()
				continue
			}
			if cancel != nil {
				continue
			}

			var pollCtx context.Context
			pollCtx, cancel = context.WithCancel(ctx)
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.poll(pollCtx)
			}()
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.log.Debug(ctx, "notification polling started", "interval", p.interval)
	defer p.log.Debug(context.WithoutCancel(ctx), "notification polling stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.refresh(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// refresh fetches the list once. A 401 here is handled by the session
// interceptor, which ends the session and with it this poller.
func (p *Poller) refresh(ctx context.Context) {
	ns, err := p.client.ListNotifications(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn(ctx, "failed to list notifications", "error", err)
		}
		return
	}

	p.mu.Lock()
	before := models.UnreadCount(p.latest)
	p.latest = ns
	p.mu.Unlock()

	if after := models.UnreadCount(ns); after > before && p.onUnread != nil {
		p.onUnread(after)
	}
}

func (p *Poller) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = nil
}

// Latest returns the most recent list, newest first as the backend sent it.
func (p *Poller) Latest() []models.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.latest)
}

// MarkRead marks one notification as read on the backend and locally.
func (p *Poller) MarkRead(ctx context.Context, id int64) error {
	if err := p.client.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.latest {
		if p.latest[i].ID == id {
			p.latest[i].Read = true
		}
	}
	return nil
}
