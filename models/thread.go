package models

// Thread is a derived grouping of email records sharing a provider thread id.
// It is recomputed from the record set on every change and never mutated
// independently.
type Thread struct {
	ID          string        `json:"id"`
	Records     []EmailRecord `json:"records"` // descending by ordering key
	UnreadCount int           `json:"unread_count"`
}

// Latest returns the newest member of the thread
func (t *Thread) Latest() *EmailRecord {
	if len(t.Records) == 0 {
		return nil
	}
	return &t.Records[0]
}
