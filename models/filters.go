package models

import (
	"fmt"
	"net/url"
)

// Filters narrows an inbox listing. The zero value selects everything.
// Equality is by value: two structurally identical filter sets must produce
// the same Key so the retrieval cache is not invalidated by a fresh but
// equivalent filter object.
type Filters struct {
	AccountEmail string `json:"account_email,omitempty"`
	Status       string `json:"status,omitempty"`   // thread status
	Priority     string `json:"priority,omitempty"`
	Owner        string `json:"owner,omitempty"`
	Label        string `json:"label,omitempty"` // label id
	Query        string `json:"query,omitempty"`
	Unread       *bool  `json:"unread,omitempty"`
}

// Key returns a stable by-value cache key for the filter set
func (f Filters) Key() string {
	unread := "-"
	if f.Unread != nil {
		unread = fmt.Sprintf("%t", *f.Unread)
	}
	return fmt.Sprintf("account=%s|status=%s|priority=%s|owner=%s|label=%s|unread=%s|q=%s",
		f.AccountEmail, f.Status, f.Priority, f.Owner, f.Label, unread, f.Query)
}

// Values encodes the filter set as query parameters for the gateway
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.AccountEmail != "" {
		v.Set("account", f.AccountEmail)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Priority != "" {
		v.Set("priority", f.Priority)
	}
	if f.Owner != "" {
		v.Set("owner", f.Owner)
	}
	if f.Label != "" {
		v.Set("label", f.Label)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Unread != nil {
		v.Set("unread", fmt.Sprintf("%t", *f.Unread))
	}
	return v
}
