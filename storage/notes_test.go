package storage

import (
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"crewbox/models"
)

func testDB(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := InitDB(t.TempDir())
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNoteRoundTrip(t *testing.T) {
	notes := NewNoteStorage(testDB(t))

	note := &models.Note{
		ID:         "n1",
		EmailID:    "e1",
		AuthorID:   "u1",
		AuthorName: "Jane",
		Message:    "<p>escalate this</p>",
		CreatedAt:  time.Now(),
	}
	if err := notes.SaveNote(note); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	got, err := notes.GetNote("e1", "n1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Message != note.Message || got.AuthorName != "Jane" {
		t.Fatalf("note did not round-trip: %+v", got)
	}
}

func TestGetNotesByEmailNewestFirst(t *testing.T) {
	notes := NewNoteStorage(testDB(t))

	base := time.Now()
	for i, id := range []string{"n1", "n2", "n3"} {
		note := &models.Note{
			ID:        id,
			EmailID:   "e1",
			AuthorID:  "u1",
			Message:   "note " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := notes.SaveNote(note); err != nil {
			t.Fatalf("SaveNote %s: %v", id, err)
		}
	}
	// Another record's note must not leak into the listing
	other := &models.Note{ID: "nx", EmailID: "e2", AuthorID: "u1", Message: "other", CreatedAt: base}
	if err := notes.SaveNote(other); err != nil {
		t.Fatalf("SaveNote nx: %v", err)
	}

	got, err := notes.GetNotesByEmail("e1")
	if err != nil {
		t.Fatalf("GetNotesByEmail: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(got))
	}
	if got[0].ID != "n3" || got[2].ID != "n1" {
		t.Fatalf("notes not newest-first: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestDeleteNote(t *testing.T) {
	notes := NewNoteStorage(testDB(t))

	note := &models.Note{ID: "n1", EmailID: "e1", AuthorID: "u1", Message: "m", CreatedAt: time.Now()}
	if err := notes.SaveNote(note); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if err := notes.DeleteNote("e1", "n1"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := notes.GetNote("e1", "n1"); err == nil {
		t.Fatal("deleted note still readable")
	}
}

func TestNotificationLifecycle(t *testing.T) {
	notifications := NewNotificationStorage(testDB(t))

	n := &models.MentionNotification{
		ID:         "m1",
		UserID:     "u2",
		NoteID:     "n1",
		EmailID:    "e1",
		AuthorName: "Jane",
		Excerpt:    "escalate this",
		CreatedAt:  time.Now(),
	}
	if err := notifications.SaveNotification(n); err != nil {
		t.Fatalf("SaveNotification: %v", err)
	}

	got, err := notifications.GetNotificationsByUser("u2")
	if err != nil {
		t.Fatalf("GetNotificationsByUser: %v", err)
	}
	if len(got) != 1 || got[0].Seen {
		t.Fatalf("unexpected notifications: %+v", got)
	}

	if err := notifications.MarkSeen("u2", "m1"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	got, _ = notifications.GetNotificationsByUser("u2")
	if !got[0].Seen {
		t.Fatal("notification not marked seen")
	}

	// Other users see nothing
	other, _ := notifications.GetNotificationsByUser("u9")
	if len(other) != 0 {
		t.Fatalf("notification leaked across users: %+v", other)
	}
}
