package models

import "time"

// Priority levels for an email record
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Thread workflow statuses
const (
	ThreadStatusActive   = "active"
	ThreadStatusPending  = "pending"
	ThreadStatusResolved = "resolved"
	ThreadStatusArchived = "archived"
)

// SyncState is the reconciliation state of a single mutated field
type SyncState string

const (
	SyncSynced  SyncState = "synced"
	SyncPending SyncState = "pending"
	SyncFailed  SyncState = "failed"
)

// SyncField names a field tracked by the optimistic sync engine
type SyncField string

const (
	FieldRead     SyncField = "read"
	FieldStarred  SyncField = "starred"
	FieldLabels   SyncField = "labels"
	FieldMetadata SyncField = "metadata"
)

// FieldSync tracks reconciliation of one field against the remote provider.
// The zero value means synced (never locally mutated).
type FieldSync struct {
	State        SyncState `json:"state,omitempty"`
	Error        string    `json:"error,omitempty"`
	IssuedAt     int64     `json:"issued_at,omitempty"` // unix nanos of the latest local mutation
	LastSyncedAt time.Time `json:"last_synced_at,omitzero"`
}

// Pending reports whether the field has an unconfirmed local mutation
func (f FieldSync) Pending() bool {
	return f.State == SyncPending
}

// SyncStatus holds independent per-field reconciliation entries
type SyncStatus struct {
	Read     FieldSync `json:"read_status,omitempty"`
	Starred  FieldSync `json:"starred_status,omitempty"`
	Labels   FieldSync `json:"labels_status,omitempty"`
	Metadata FieldSync `json:"metadata_status,omitempty"`
}

// Field returns the entry for the named field
func (s *SyncStatus) Field(f SyncField) *FieldSync {
	switch f {
	case FieldRead:
		return &s.Read
	case FieldStarred:
		return &s.Starred
	case FieldLabels:
		return &s.Labels
	default:
		return &s.Metadata
	}
}

// Attachment describes attachment metadata on an email record
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// EmailRecord is one email as pulled from the Remote Mail Gateway, plus the
// locally-owned optimistic state layered on top of it. Records are never
// deleted locally; archival is a threadStatus transition.
type EmailRecord struct {
	ID               string    `json:"id"`
	ProviderThreadID string    `json:"provider_thread_id,omitempty"`
	Subject          string    `json:"subject"`
	From             string    `json:"from"`
	FromName         string    `json:"from_name"`
	Preview          string    `json:"preview"`
	Body             string    `json:"body,omitempty"` // loaded lazily via GetEmailDetail
	Date             time.Time `json:"date"`
	OrderingKey      int64     `json:"ordering_key"` // provider-assigned, missing sorts as 0

	Read         bool     `json:"read"`
	Starred      bool     `json:"starred"`
	Priority     string   `json:"priority"`
	ThreadStatus string   `json:"thread_status"`
	Owner        string   `json:"owner,omitempty"` // directory user id
	Labels       []string `json:"labels"`          // label ids, insertion order irrelevant

	SyncStatus SyncStatus `json:"sync_status"`

	AccountEmail string `json:"account_email"`
	AccountOwner string `json:"account_owner"`

	Attachments    []Attachment `json:"attachments,omitempty"`
	HasAttachments bool         `json:"has_attachments"`
}

// HasLabel reports whether the record carries the given label id
func (e *EmailRecord) HasLabel(id string) bool {
	for _, l := range e.Labels {
		if l == id {
			return true
		}
	}
	return false
}

// ThreadKey is the grouping key: the provider thread id when present,
// otherwise the record is its own singleton thread.
func (e *EmailRecord) ThreadKey() string {
	if e.ProviderThreadID != "" {
		return e.ProviderThreadID
	}
	return e.ID
}
