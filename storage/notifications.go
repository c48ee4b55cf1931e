package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"crewbox/models"
)

const notificationBucket = "Notifications"

// NotificationStorage persists mention notifications keyed under their
// recipient.
type NotificationStorage struct {
	db *bbolt.DB
}

// NewNotificationStorage creates a notification storage instance
func NewNotificationStorage(db *bbolt.DB) *NotificationStorage {
	return &NotificationStorage{db: db}
}

func notificationKey(userID, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", userID, id))
}

// SaveNotification persists a mention notification
func (s *NotificationStorage) SaveNotification(n *models.MentionNotification) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(notificationBucket))

		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to encode notification: %v", err)
		}

		return b.Put(notificationKey(n.UserID, n.ID), data)
	})
}

// GetNotificationsByUser retrieves a user's notifications, newest first
func (s *NotificationStorage) GetNotificationsByUser(userID string) ([]models.MentionNotification, error) {
	var notifications []models.MentionNotification

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(notificationBucket))
		c := b.Cursor()

		prefix := []byte(userID + ":")
		for k, v := c.Seek(prefix); k != nil && bytesHasPrefix(k, prefix); k, v = c.Next() {
			var n models.MentionNotification
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			notifications = append(notifications, n)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	return notifications, nil
}

// MarkSeen marks a notification as seen
func (s *NotificationStorage) MarkSeen(userID, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(notificationBucket))

		key := notificationKey(userID, id)
		data := b.Get(key)
		if data == nil {
			return fmt.Errorf("notification not found")
		}

		var n models.MentionNotification
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		n.Seen = true

		updated, err := json.Marshal(&n)
		if err != nil {
			return err
		}
		return b.Put(key, updated)
	})
}
