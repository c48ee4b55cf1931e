package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crewbox/gateway"
	"crewbox/models"
	"crewbox/storage"
	"crewbox/utils"
)

const excerptLength = 120

// RoleAdmin may delete any note; everyone else only their own
const RoleAdmin = "admin"

// Service manages internal discussion notes and the mention notifications
// they produce.
type Service struct {
	notes         *storage.NoteStorage
	notifications *storage.NotificationStorage
	directory     gateway.DirectoryService
	notify        func(models.MentionNotification) // push to connected UI clients, may be nil
	logger        *utils.Logger
}

// NewService creates the note service
func NewService(notes *storage.NoteStorage, notifications *storage.NotificationStorage, directory gateway.DirectoryService, notify func(models.MentionNotification), logger *utils.Logger) *Service {
	return &Service{
		notes:         notes,
		notifications: notifications,
		directory:     directory,
		notify:        notify,
		logger:        logger,
	}
}

// Create adds a note to an email record, resolves its mentions and emits
// exactly one notification per mentioned user. Mention dispatch failures are
// logged, never fatal to the note itself.
func (s *Service) Create(ctx context.Context, emailID string, author models.DirectoryUser, message, image string) (*models.Note, error) {
	message = utils.SanitizeNoteHTML(message)
	if strings.TrimSpace(utils.StripHTML(message)) == "" && image == "" {
		return nil, fmt.Errorf("note requires a message or an image")
	}

	note := &models.Note{
		ID:         uuid.New().String(),
		EmailID:    emailID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Message:    message,
		Image:      image,
		CreatedAt:  time.Now(),
	}

	if err := s.notes.SaveNote(note); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	s.dispatchMentions(ctx, note)

	return note, nil
}

// List returns an email record's notes, newest first
func (s *Service) List(emailID string) ([]models.Note, error) {
	return s.notes.GetNotesByEmail(emailID)
}

// Delete removes a note. Only the author or an admin may delete it.
func (s *Service) Delete(emailID, noteID, actorID, actorRole string) error {
	note, err := s.notes.GetNote(emailID, noteID)
	if err != nil {
		return err
	}
	if note.AuthorID != actorID && actorRole != RoleAdmin {
		return fmt.Errorf("only the author or an admin may delete a note")
	}
	return s.notes.DeleteNote(emailID, noteID)
}

// dispatchMentions resolves @-mentions in the note and notifies each
// mentioned user once.
func (s *Service) dispatchMentions(ctx context.Context, note *models.Note) {
	if note.Message == "" {
		return
	}

	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		// Directory outage: the note stands, mentions stay plain text
		s.logger.Warn("Mention resolution skipped, directory unavailable: %v", err)
		return
	}

	for _, user := range ResolveMentions(note.Message, note.AuthorID, users) {
		notification := models.MentionNotification{
			ID:         uuid.New().String(),
			UserID:     user.ID,
			NoteID:     note.ID,
			EmailID:    note.EmailID,
			AuthorName: note.AuthorName,
			Excerpt:    excerpt(note.Message),
			CreatedAt:  time.Now(),
		}

		if err := s.notifications.SaveNotification(&notification); err != nil {
			s.logger.Error("Failed to save mention notification for %s: %v", user.ID, err)
			continue
		}
		if s.notify != nil {
			s.notify(notification)
		}
	}
}

// Notifications returns a user's mention notifications, newest first
func (s *Service) Notifications(userID string) ([]models.MentionNotification, error) {
	return s.notifications.GetNotificationsByUser(userID)
}

// MarkNotificationSeen marks one of the user's notifications as seen
func (s *Service) MarkNotificationSeen(userID, id string) error {
	return s.notifications.MarkSeen(userID, id)
}

func excerpt(message string) string {
	text := strings.TrimSpace(utils.StripHTML(message))
	if len(text) > excerptLength {
		return utils.TruncateText(text, excerptLength) + "…"
	}
	return text
}
