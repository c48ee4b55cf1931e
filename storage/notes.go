package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"crewbox/models"
)

const noteBucket = "Notes"

// NoteStorage persists internal discussion notes keyed under their parent
// email record.
type NoteStorage struct {
	db *bbolt.DB
}

// NewNoteStorage creates a note storage instance
func NewNoteStorage(db *bbolt.DB) *NoteStorage {
	return &NoteStorage{db: db}
}

// noteKey is the composite key "emailID:noteID" so notes for one record are
// a single prefix scan.
func noteKey(emailID, noteID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", emailID, noteID))
}

// SaveNote persists a note
func (s *NoteStorage) SaveNote(note *models.Note) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(noteBucket))

		data, err := json.Marshal(note)
		if err != nil {
			return fmt.Errorf("failed to encode note: %v", err)
		}

		return b.Put(noteKey(note.EmailID, note.ID), data)
	})
}

// GetNote retrieves a single note
func (s *NoteStorage) GetNote(emailID, noteID string) (*models.Note, error) {
	var note models.Note

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(noteBucket))
		data := b.Get(noteKey(emailID, noteID))
		if data == nil {
			return fmt.Errorf("note not found")
		}
		return json.Unmarshal(data, &note)
	})

	if err != nil {
		return nil, err
	}

	return &note, nil
}

// GetNotesByEmail retrieves all notes for an email record, newest first
func (s *NoteStorage) GetNotesByEmail(emailID string) ([]models.Note, error) {
	var notes []models.Note

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(noteBucket))
		c := b.Cursor()

		prefix := []byte(emailID + ":")
		for k, v := c.Seek(prefix); k != nil && bytesHasPrefix(k, prefix); k, v = c.Next() {
			var note models.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			notes = append(notes, note)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	return notes, nil
}

// DeleteNote removes a note
func (s *NoteStorage) DeleteNote(emailID, noteID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(noteBucket))
		return b.Delete(noteKey(emailID, noteID))
	})
}

// Helper for prefix check
func bytesHasPrefix(s, prefix []byte) bool {
	return len(s) >= len(prefix) && string(s[0:len(prefix)]) == string(prefix)
}
