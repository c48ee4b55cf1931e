package models

// Label types
const (
	LabelTypeSystem = "system"
	LabelTypeUser   = "user"
)

// Label represents a provider-scoped tag attachable to an email record.
// IDs are opaque and scoped to one connected account.
type Label struct {
	ID           string `json:"id"`
	AccountEmail string `json:"account_email"`
	Name         string `json:"name"`
	Type         string `json:"type"` // "system" or "user"
}

// LabelDelta is an add/remove change set against a record's label set.
// Add and Remove must be disjoint.
type LabelDelta struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}
