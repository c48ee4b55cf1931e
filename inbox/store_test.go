package inbox

import (
	"testing"

	"crewbox/models"
)

func TestMergePendingFieldKeepsLocalValue(t *testing.T) {
	store := NewStore()
	local := testRecord("e1", "T1", 10)
	local.Read = true
	local.SyncStatus.Read.State = models.SyncPending
	local.SyncStatus.Read.IssuedAt = 1
	store.Merge([]models.EmailRecord{local})

	fresh := testRecord("e1", "T1", 10)
	fresh.Read = false // server has not seen the mutation yet
	fresh.Subject = "updated subject"
	store.Merge([]models.EmailRecord{fresh})

	got, _ := store.Get("e1")
	if !got.Read {
		t.Fatal("pending field must keep the local value across a merge")
	}
	if got.Subject != "updated subject" {
		t.Fatal("non-pending fields must take the fresh value")
	}
	if !got.SyncStatus.Read.Pending() {
		t.Fatal("sync status must survive the merge")
	}
}

func TestMergeFailedFieldYieldsToFreshData(t *testing.T) {
	store := NewStore()
	local := testRecord("e1", "T1", 10)
	local.Starred = true
	local.SyncStatus.Starred.State = models.SyncFailed
	local.SyncStatus.Starred.Error = "timeout"
	store.Merge([]models.EmailRecord{local})

	fresh := testRecord("e1", "T1", 10)
	fresh.Starred = false
	store.Merge([]models.EmailRecord{fresh})

	got, _ := store.Get("e1")
	if got.Starred {
		t.Fatal("failed field must yield to freshly-fetched data")
	}
}

func TestMergePreservesLazilyLoadedBody(t *testing.T) {
	store := NewStore()
	withBody := testRecord("e1", "T1", 10)
	withBody.Body = "<p>full body</p>"
	store.Merge([]models.EmailRecord{withBody})

	// Listing pages carry no body
	listing := testRecord("e1", "T1", 10)
	store.Merge([]models.EmailRecord{listing})

	got, _ := store.Get("e1")
	if got.Body != "<p>full body</p>" {
		t.Fatal("merge dropped the lazily-loaded body")
	}
}

func TestMergeAppliesDefaults(t *testing.T) {
	store := NewStore()
	store.Merge([]models.EmailRecord{{
		ID:          "e1",
		Attachments: []models.Attachment{{ID: "a1", Filename: "report.pdf"}},
	}})

	got, _ := store.Get("e1")
	if got.Priority != models.PriorityMedium || got.ThreadStatus != models.ThreadStatusActive {
		t.Fatalf("defaults not applied: priority=%q status=%q", got.Priority, got.ThreadStatus)
	}
	if got.Labels == nil {
		t.Fatal("labels must never be nil")
	}
	if !got.HasAttachments {
		t.Fatal("attachment flag not derived")
	}
}

func TestUpdateReturnsIsolatedCopy(t *testing.T) {
	store := NewStore()
	store.Merge([]models.EmailRecord{testRecord("e1", "T1", 10)})

	rec, ok := store.Update("e1", func(r *models.EmailRecord) {
		r.Labels = append(r.Labels, "l1")
	})
	if !ok {
		t.Fatal("update on known id reported missing")
	}

	rec.Labels[0] = "mutated-by-caller"
	got, _ := store.Get("e1")
	if got.Labels[0] != "l1" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestManyPreservesOrderAndSkipsUnknown(t *testing.T) {
	store := NewStore()
	store.Merge([]models.EmailRecord{
		testRecord("a", "", 1),
		testRecord("b", "", 2),
	})

	got := store.Many([]string{"b", "missing", "a"})
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestChangeListenersReceiveUpdates(t *testing.T) {
	store := NewStore()
	var events []string
	store.OnChange(func(r models.EmailRecord) {
		events = append(events, r.ID)
	})

	store.Merge([]models.EmailRecord{testRecord("e1", "", 1)})
	store.Update("e1", func(r *models.EmailRecord) { r.Read = true })

	if len(events) != 2 || events[0] != "e1" || events[1] != "e1" {
		t.Fatalf("expected two change events for e1, got %v", events)
	}
}
