package models

import "time"

// ConnectedAccount is a mailbox synced into the shared inbox. Identity is the
// (Email, OwnerID) pair; listings must be deduplicated on it.
type ConnectedAccount struct {
	Email       string    `json:"email"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSyncAt  time.Time `json:"last_sync_at"`
	IsOwn       bool      `json:"is_own"` // true when the account belongs to the acting user
}

// Key returns the composite dedup key for the account
func (a *ConnectedAccount) Key() string {
	return a.Email + ":" + a.OwnerID
}
