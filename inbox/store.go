package inbox

import (
	"sync"

	"crewbox/models"
)

// ChangeListener receives a copy of every record that changes in the store
type ChangeListener func(models.EmailRecord)

// Store is the single normalized record collection, keyed by record id.
// Every mutation goes through it atomically (replace-on-write); nothing else
// in the process holds record state.
type Store struct {
	mu        sync.RWMutex
	records   map[string]*models.EmailRecord
	listeners []ChangeListener
}

// NewStore creates an empty record store
func NewStore() *Store {
	return &Store{
		records: make(map[string]*models.EmailRecord),
	}
}

// OnChange registers a listener for record updates. Listeners are invoked
// synchronously after the store lock is released.
func (s *Store) OnChange(fn ChangeListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Get returns a copy of the record with the given id
func (s *Store) Get(id string) (models.EmailRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return models.EmailRecord{}, false
	}
	return cloneRecord(rec), true
}

// All returns copies of every record in the store
func (s *Store) All() []models.EmailRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EmailRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	return out
}

// Many returns copies of the records with the given ids, preserving order
// and skipping unknown ids.
func (s *Store) Many(ids []string) []models.EmailRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EmailRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out = append(out, cloneRecord(rec))
		}
	}
	return out
}

// Update atomically applies fn to a copy of the record and replaces the
// stored value with it. Returns the updated copy, or false if the id is
// unknown.
func (s *Store) Update(id string, fn func(*models.EmailRecord)) (models.EmailRecord, bool) {
	s.mu.Lock()
	current, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return models.EmailRecord{}, false
	}

	next := cloneRecord(current)
	fn(&next)
	s.records[id] = &next

	updated := cloneRecord(&next)
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(updated)
	}
	return updated, true
}

// Merge folds freshly-fetched records into the store. A field with a pending
// local mutation keeps its local value until reconciliation clears the
// status; everything else takes the server's value. Failed fields yield to
// fresh data, which is how a stuck failure recovers on refresh.
func (s *Store) Merge(fresh []models.EmailRecord) {
	var changed []models.EmailRecord

	s.mu.Lock()
	for i := range fresh {
		incoming := fresh[i]
		normalizeRecord(&incoming)

		existing, ok := s.records[incoming.ID]
		if ok {
			mergeLocalState(&incoming, existing)
		}
		next := cloneRecord(&incoming)
		s.records[incoming.ID] = &next
		changed = append(changed, cloneRecord(&next))
	}
	listeners := s.listeners
	s.mu.Unlock()

	for _, rec := range changed {
		for _, fn := range listeners {
			fn(rec)
		}
	}
}

// mergeLocalState carries locally-owned state from the existing record onto
// the incoming one.
func mergeLocalState(incoming, existing *models.EmailRecord) {
	incoming.SyncStatus = existing.SyncStatus

	if existing.SyncStatus.Read.Pending() {
		incoming.Read = existing.Read
	}
	if existing.SyncStatus.Starred.Pending() {
		incoming.Starred = existing.Starred
	}
	if existing.SyncStatus.Labels.Pending() {
		incoming.Labels = append([]string(nil), existing.Labels...)
	}
	if existing.SyncStatus.Metadata.Pending() {
		incoming.Priority = existing.Priority
		incoming.ThreadStatus = existing.ThreadStatus
		incoming.Owner = existing.Owner
	}

	// A listing page carries no body; keep the lazily-loaded one
	if incoming.Body == "" {
		incoming.Body = existing.Body
	}
}

// normalizeRecord applies defaults the gateway may omit
func normalizeRecord(rec *models.EmailRecord) {
	if rec.Priority == "" {
		rec.Priority = models.PriorityMedium
	}
	if rec.ThreadStatus == "" {
		rec.ThreadStatus = models.ThreadStatusActive
	}
	if rec.Labels == nil {
		rec.Labels = []string{}
	}
	if len(rec.Attachments) > 0 {
		rec.HasAttachments = true
	}
}

func cloneRecord(rec *models.EmailRecord) models.EmailRecord {
	out := *rec
	out.Labels = append([]string(nil), rec.Labels...)
	out.Attachments = append([]models.Attachment(nil), rec.Attachments...)
	return out
}
