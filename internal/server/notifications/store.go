// Package notifications stores per-account notifications for the development
// backend.
package notifications

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
)

type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	Read      bool
	CreatedAt time.Time
}

// Store is an in-memory notification inbox keyed by account id.
type Store struct {
	mu     sync.Mutex
	nextID int64
	byUser map[int64][]Notification
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{byUser: make(map[int64][]Notification), now: time.Now}
}

// Push appends an unread notification for userID.
func (s *Store) Push(ctx context.Context, userID int64, message string) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n := Notification{ID: s.nextID, UserID: userID, Message: message, CreatedAt: s.now().UTC()}
	s.byUser[userID] = append(s.byUser[userID], n)
	return n
}

// List returns userID's notifications, newest first.
func (s *Store) List(ctx context.Context, userID int64) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.byUser[userID])
	slices.Reverse(out)
	return out
}

// MarkRead flags one notification as read. Marking an already read
// notification is not an error; one owned by someone else is not found.
func (s *Store) MarkRead(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inbox := s.byUser[userID]
	for i := range inbox {
		if inbox[i].ID == id {
			inbox[i].Read = true
			return nil
		}
	}
	return common.ErrorNotFound
}
