package inbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"crewbox/gateway"
	"crewbox/models"
)

func pageOf(start, count int) []models.EmailRecord {
	records := make([]models.EmailRecord, 0, count)
	for i := 0; i < count; i++ {
		n := start + i
		records = append(records, testRecord(fmt.Sprintf("e%d", n), "", int64(1000-n)))
	}
	return records
}

func newTestCache(gw *fakeGateway, pageSize int) (*PageCache, *Store) {
	store := NewStore()
	return NewPageCache(store, gw, pageSize, time.Hour, testLogger()), store
}

func TestLoadFullPageImpliesMore(t *testing.T) {
	gw := &fakeGateway{
		listFn: func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
			return &gateway.ListEmailsResult{Records: pageOf(1, 3)}, nil
		},
	}
	cache, _ := newTestCache(gw, 3)

	snap, err := cache.Load(context.Background(), "u1", models.Filters{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(snap.Records))
	}
	if !snap.HasMore {
		t.Fatal("a full page without an explicit flag must imply more data")
	}
}

func TestLoadShortPageImpliesEnd(t *testing.T) {
	gw := &fakeGateway{
		listFn: func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
			return &gateway.ListEmailsResult{Records: pageOf(1, 2)}, nil
		},
	}
	cache, _ := newTestCache(gw, 3)

	snap, _ := cache.Load(context.Background(), "u1", models.Filters{})
	if snap.HasMore {
		t.Fatal("a short page must imply end of data")
	}
}

func TestExplicitHasMoreFlagWins(t *testing.T) {
	no := false
	gw := &fakeGateway{
		listFn: func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
			// Full page, but the server says there is nothing further
			return &gateway.ListEmailsResult{Records: pageOf(1, 3), HasMore: &no}, nil
		},
	}
	cache, _ := newTestCache(gw, 3)

	snap, _ := cache.Load(context.Background(), "u1", models.Filters{})
	if snap.HasMore {
		t.Fatal("explicit server flag must override the full-page heuristic")
	}
}

func TestLoadHitsCacheForEquivalentFilters(t *testing.T) {
	gw := &fakeGateway{
		listFn: func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
			return &gateway.ListEmailsResult{Records: pageOf(1, 2)}, nil
		},
	}
	cache, _ := newTestCache(gw, 3)

	unread := true
	first := models.Filters{Status: models.ThreadStatusActive, Unread: &unread}
	if _, err := cache.Load(context.Background(), "u1", first); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Structurally equal but a fresh struct and a fresh bool pointer
	again := true
	second := models.Filters{Status: models.ThreadStatusActive, Unread: &again}
	if _, err := cache.Load(context.Background(), "u1", second); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := gw.listCallCount(); got != 1 {
		t.Fatalf("equivalent filters must reuse the cached entry, got %d fetches", got)
	}
}

func TestLoadRetriesAfterFailedFirstPage(t *testing.T) {
	fail := true
	gw := &fakeGateway{}
	gw.listFn = func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
		if fail {
			return nil, errors.New("gateway unavailable")
		}
		return &gateway.ListEmailsResult{Records: pageOf(1, 2)}, nil
	}
	cache, _ := newTestCache(gw, 3)

	if _, err := cache.Load(context.Background(), "u1", models.Filters{}); err == nil {
		t.Fatal("expected the first load to fail")
	}

	fail = false
	snap, err := cache.Load(context.Background(), "u1", models.Filters{})
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("a zero-page entry must refetch on Load, got %d records", len(snap.Records))
	}
	if snap.Error != "" {
		t.Fatalf("recovered entry still carries an error: %q", snap.Error)
	}
	if got := gw.listCallCount(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestLoadMoreAppendsAndDeduplicates(t *testing.T) {
	gw := &fakeGateway{}
	gw.listFn = func(_ models.Filters, page gateway.PageRequest, _ int) (*gateway.ListEmailsResult, error) {
		if page.Page <= 1 && page.Cursor == "" {
			return &gateway.ListEmailsResult{Records: pageOf(1, 3), NextCursor: "c1"}, nil
		}
		if page.Cursor != "c1" {
			return nil, fmt.Errorf("expected cursor c1, got %q", page.Cursor)
		}
		// Overlap: e3 appears on both pages
		return &gateway.ListEmailsResult{Records: pageOf(3, 2)}, nil
	}
	cache, _ := newTestCache(gw, 3)

	if _, err := cache.Load(context.Background(), "u1", models.Filters{}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap, err := cache.LoadMore(context.Background(), "u1", models.Filters{})
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	if len(snap.Records) != 4 {
		t.Fatalf("expected 4 deduplicated records, got %d", len(snap.Records))
	}
	want := []string{"e1", "e2", "e3", "e4"}
	for i, id := range want {
		if snap.Records[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, snap.Records[i].ID)
		}
	}
	if snap.HasMore {
		t.Fatal("short second page must end pagination")
	}
}

func TestLoadMoreFailureKeepsLoadedPages(t *testing.T) {
	gw := &fakeGateway{}
	gw.listFn = func(_ models.Filters, page gateway.PageRequest, _ int) (*gateway.ListEmailsResult, error) {
		if page.Page <= 1 && page.Cursor == "" {
			return &gateway.ListEmailsResult{Records: pageOf(1, 3)}, nil
		}
		return nil, errors.New("gateway unavailable")
	}
	cache, _ := newTestCache(gw, 3)

	cache.Load(context.Background(), "u1", models.Filters{})
	snap, err := cache.LoadMore(context.Background(), "u1", models.Filters{})
	if err == nil {
		t.Fatal("expected the fetch error to surface")
	}
	if len(snap.Records) != 3 {
		t.Fatalf("failed fetch must keep loaded pages, got %d records", len(snap.Records))
	}
	if !snap.HasMore {
		t.Fatal("failed fetch must leave pagination resumable")
	}
	if snap.Error == "" {
		t.Fatal("snapshot must carry the last fetch error")
	}
}

func TestRefreshPreservesPendingMutations(t *testing.T) {
	serverRead := false
	gw := &fakeGateway{}
	gw.listFn = func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
		rec := testRecord("e1", "", 10)
		rec.Read = serverRead
		return &gateway.ListEmailsResult{Records: []models.EmailRecord{rec}}, nil
	}
	cache, store := newTestCache(gw, 3)

	cache.Load(context.Background(), "u1", models.Filters{})
	store.Update("e1", func(r *models.EmailRecord) {
		r.Read = true
		r.SyncStatus.Read.State = models.SyncPending
	})

	snap, err := cache.Refresh(context.Background(), "u1", models.Filters{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !snap.Records[0].Read {
		t.Fatal("refresh must not clobber a pending local mutation")
	}
}

func TestRefreshFailureKeepsListing(t *testing.T) {
	var fail bool
	gw := &fakeGateway{}
	gw.listFn = func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
		if fail {
			return nil, errors.New("gateway unavailable")
		}
		return &gateway.ListEmailsResult{Records: pageOf(1, 2)}, nil
	}
	cache, _ := newTestCache(gw, 3)

	cache.Load(context.Background(), "u1", models.Filters{})
	fail = true

	snap, err := cache.Refresh(context.Background(), "u1", models.Filters{})
	if err == nil {
		t.Fatal("expected refresh error")
	}
	if len(snap.Records) != 2 {
		t.Fatalf("failed refresh must keep the listing, got %d records", len(snap.Records))
	}
}

func TestSnapshotReflectsStoreChanges(t *testing.T) {
	gw := &fakeGateway{
		listFn: func(models.Filters, gateway.PageRequest, int) (*gateway.ListEmailsResult, error) {
			return &gateway.ListEmailsResult{Records: pageOf(1, 2)}, nil
		},
	}
	cache, store := newTestCache(gw, 3)

	cache.Load(context.Background(), "u1", models.Filters{})
	store.Update("e1", func(r *models.EmailRecord) { r.Starred = true })

	snap, ok := cache.Snapshot("u1", models.Filters{})
	if !ok {
		t.Fatal("snapshot missing for loaded key")
	}
	if !snap.Records[0].Starred {
		t.Fatal("snapshot must resolve records through the store")
	}
	if got := gw.listCallCount(); got != 1 {
		t.Fatalf("Snapshot must not fetch, got %d calls", got)
	}
}
