package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"crewbox/gateway"
	"crewbox/models"
	"crewbox/utils"
)

var (
	// ErrRecordNotFound means the record id is not in the local store
	ErrRecordNotFound = errors.New("record not found")
	// ErrNothingToRetry means no failed mutation is recorded for the field
	ErrNothingToRetry = errors.New("nothing to retry")
)

// Engine applies user-initiated mutations optimistically: the local value
// changes immediately, the field is marked pending with an issuance
// timestamp, and the remote call is fired on its own goroutine. A completion
// only lands if its issuance timestamp still matches the field's — a newer
// local mutation supersedes any in-flight confirmation. Failures keep the
// user's chosen value and mark the field failed for manual retry; there is
// no automatic rollback.
type Engine struct {
	store   *Store
	gw      gateway.MailGateway
	timeout time.Duration
	logger  *utils.Logger

	lastIssue atomic.Int64

	mu      sync.Mutex
	retries map[string]func(context.Context) error // id:field -> last remote call
}

// NewEngine creates the optimistic sync engine
func NewEngine(store *Store, gw gateway.MailGateway, timeout time.Duration, logger *utils.Logger) *Engine {
	return &Engine{
		store:   store,
		gw:      gw,
		timeout: timeout,
		logger:  logger,
		retries: make(map[string]func(context.Context) error),
	}
}

// SetRead marks a record read or unread
func (e *Engine) SetRead(id string, read bool, userID string) (models.EmailRecord, error) {
	return e.mutate(id, models.FieldRead,
		func(r *models.EmailRecord) { r.Read = read },
		func(ctx context.Context) error { return e.gw.SetReadState(ctx, id, read, userID) },
	)
}

// SetStarred stars or unstars a record
func (e *Engine) SetStarred(id string, starred bool) (models.EmailRecord, error) {
	return e.mutate(id, models.FieldStarred,
		func(r *models.EmailRecord) { r.Starred = starred },
		func(ctx context.Context) error { return e.gw.SetStarred(ctx, id, starred) },
	)
}

// ApplyLabelDelta applies an add/remove label change set. Adds are
// deduplicated and removes are idempotent, so applying the same delta twice
// yields the same set as applying it once.
func (e *Engine) ApplyLabelDelta(id string, delta models.LabelDelta) (models.EmailRecord, error) {
	if err := validateDelta(delta); err != nil {
		return models.EmailRecord{}, err
	}
	return e.mutate(id, models.FieldLabels,
		func(r *models.EmailRecord) { r.Labels = applyDelta(r.Labels, delta) },
		func(ctx context.Context) error { return e.gw.UpdateLabels(ctx, id, delta) },
	)
}

// UpdateMetadata changes priority, thread status and/or owner
func (e *Engine) UpdateMetadata(id string, changes gateway.MetadataChanges) (models.EmailRecord, error) {
	if err := validateMetadata(changes); err != nil {
		return models.EmailRecord{}, err
	}
	return e.mutate(id, models.FieldMetadata,
		func(r *models.EmailRecord) {
			if changes.Priority != nil {
				r.Priority = *changes.Priority
			}
			if changes.ThreadStatus != nil {
				r.ThreadStatus = *changes.ThreadStatus
			}
			if changes.Owner != nil {
				r.Owner = *changes.Owner
			}
		},
		func(ctx context.Context) error { return e.gw.UpdateMetadata(ctx, id, changes) },
	)
}

// Retry re-dispatches the last mutation recorded for a field. The local
// value is already the user's intent, so only the remote call is repeated.
func (e *Engine) Retry(id string, field models.SyncField) (models.EmailRecord, error) {
	e.mu.Lock()
	call, ok := e.retries[retryKey(id, field)]
	e.mu.Unlock()
	if !ok {
		return models.EmailRecord{}, ErrNothingToRetry
	}
	return e.mutate(id, field, func(*models.EmailRecord) {}, call)
}

// mutate is the one optimistic-mutation primitive every field reuses, which
// keeps the pending/synced/failed invariant uniform.
func (e *Engine) mutate(id string, field models.SyncField, apply func(*models.EmailRecord), call func(context.Context) error) (models.EmailRecord, error) {
	issuedAt := e.nextIssue()

	rec, ok := e.store.Update(id, func(r *models.EmailRecord) {
		apply(r)
		fs := r.SyncStatus.Field(field)
		fs.State = models.SyncPending
		fs.Error = ""
		fs.IssuedAt = issuedAt
	})
	if !ok {
		return models.EmailRecord{}, ErrRecordNotFound
	}

	e.mu.Lock()
	e.retries[retryKey(id, field)] = call
	e.mu.Unlock()

	go e.confirm(id, field, issuedAt, call)
	return rec, nil
}

// confirm completes a mutation once the gateway responds. Mutations update
// state by record id, never by the current UI selection, so navigating away
// cannot lose an update.
func (e *Engine) confirm(id string, field models.SyncField, issuedAt int64, call func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	err := call(ctx)

	e.store.Update(id, func(r *models.EmailRecord) {
		fs := r.SyncStatus.Field(field)
		if fs.IssuedAt != issuedAt {
			// Superseded by a newer local mutation; this response may only
			// have confirmed its own request, not the newer value.
			return
		}
		if err != nil {
			fs.State = models.SyncFailed
			fs.Error = err.Error()
			e.logger.Warn("Sync failed for %s.%s: %v", id, field, err)
			return
		}
		fs.State = models.SyncSynced
		fs.Error = ""
		fs.LastSyncedAt = time.Now()
	})
}

// nextIssue returns a strictly increasing issuance timestamp
func (e *Engine) nextIssue() int64 {
	for {
		now := time.Now().UnixNano()
		last := e.lastIssue.Load()
		if now <= last {
			now = last + 1
		}
		if e.lastIssue.CompareAndSwap(last, now) {
			return now
		}
	}
}

func retryKey(id string, field models.SyncField) string {
	return id + ":" + string(field)
}

// validateDelta rejects malformed label change sets before any optimistic
// apply, so validation failures never show up as sync status.
func validateDelta(delta models.LabelDelta) error {
	if len(delta.Add) == 0 && len(delta.Remove) == 0 {
		return fmt.Errorf("empty label delta")
	}
	removing := make(map[string]bool, len(delta.Remove))
	for _, id := range delta.Remove {
		if id == "" {
			return fmt.Errorf("empty label id in remove set")
		}
		removing[id] = true
	}
	for _, id := range delta.Add {
		if id == "" {
			return fmt.Errorf("empty label id in add set")
		}
		if removing[id] {
			return fmt.Errorf("label %s in both add and remove sets", id)
		}
	}
	return nil
}

func validateMetadata(changes gateway.MetadataChanges) error {
	if changes.Priority == nil && changes.ThreadStatus == nil && changes.Owner == nil {
		return fmt.Errorf("empty metadata change")
	}
	if changes.Priority != nil {
		switch *changes.Priority {
		case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		default:
			return fmt.Errorf("invalid priority %q", *changes.Priority)
		}
	}
	if changes.ThreadStatus != nil {
		switch *changes.ThreadStatus {
		case models.ThreadStatusActive, models.ThreadStatusPending,
			models.ThreadStatusResolved, models.ThreadStatusArchived:
		default:
			return fmt.Errorf("invalid thread status %q", *changes.ThreadStatus)
		}
	}
	return nil
}

// applyDelta computes the new label set: union with the adds (duplicates
// dropped) then removal of the removes (absent ids are a no-op).
func applyDelta(current []string, delta models.LabelDelta) []string {
	removing := make(map[string]bool, len(delta.Remove))
	for _, id := range delta.Remove {
		removing[id] = true
	}

	seen := make(map[string]bool, len(current)+len(delta.Add))
	next := make([]string, 0, len(current)+len(delta.Add))
	for _, id := range current {
		if removing[id] || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	for _, id := range delta.Add {
		if removing[id] || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	return next
}
