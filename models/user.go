package models

// DirectoryUser is a known team member from the external Directory Service,
// used for mention resolution and record ownership.
type DirectoryUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
