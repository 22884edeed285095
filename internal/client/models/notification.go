package models

import "time"

type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type Wallet struct {
	ID      int64   `json:"id"`
	Balance float64 `json:"balance"`
}

// UnreadCount counts notifications not yet marked as read.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
