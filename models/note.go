package models

import "time"

// Note is an internal discussion entry attached to an email record. Notes are
// visible to the team only, never sent to the mail provider.
type Note struct {
	ID         string    `json:"id"`
	EmailID    string    `json:"email_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Message    string    `json:"message"` // sanitized HTML, may be empty if an image is attached
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MentionNotification is delivered to a directory user mentioned in a note.
// At most one is emitted per mentioned user per note.
type MentionNotification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"` // recipient
	NoteID     string    `json:"note_id"`
	EmailID    string    `json:"email_id"`
	AuthorName string    `json:"author_name"`
	Excerpt    string    `json:"excerpt"`
	CreatedAt  time.Time `json:"created_at"`
	Seen       bool      `json:"seen"`
}
