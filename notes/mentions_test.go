package notes

import (
	"testing"

	"crewbox/models"
)

var team = []models.DirectoryUser{
	{ID: "u1", Name: "Jane", Email: "jane@example.com"},
	{ID: "u2", Name: "Jane Doe", Email: "jane.doe@example.com"},
	{ID: "u3", Name: "Omar", Email: "omar@example.com"},
}

func ids(users []models.DirectoryUser) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestResolveMentionsBasic(t *testing.T) {
	got := ResolveMentions("ping @Omar about the invoice", "u1", team)
	if len(got) != 1 || got[0].ID != "u3" {
		t.Fatalf("expected [u3], got %v", ids(got))
	}
}

func TestResolveMentionsCaseInsensitive(t *testing.T) {
	got := ResolveMentions("cc @omar", "u1", team)
	if len(got) != 1 || got[0].ID != "u3" {
		t.Fatalf("expected [u3], got %v", ids(got))
	}
}

func TestResolveMentionsAuthorNeverMatches(t *testing.T) {
	got := ResolveMentions("note to self @Omar", "u3", team)
	if len(got) != 0 {
		t.Fatalf("author must never be notified, got %v", ids(got))
	}
}

func TestResolveMentionsDeduplicates(t *testing.T) {
	got := ResolveMentions("@Omar and again @Omar please", "u1", team)
	if len(got) != 1 {
		t.Fatalf("each user mentioned at most once, got %v", ids(got))
	}
}

func TestResolveMentionsMultiWordName(t *testing.T) {
	// "@Jane Doe thanks" matches both "Jane" and "Jane Doe": the token is a
	// prefix match against every display name
	got := ResolveMentions("@Jane Doe thanks for the heads up", "u3", team)
	if len(got) != 2 {
		t.Fatalf("expected Jane and Jane Doe, got %v", ids(got))
	}
}

func TestResolveMentionsWordBoundary(t *testing.T) {
	// "Janet" must not resolve to "Jane"
	got := ResolveMentions("forwarding to @Janet", "u3", team)
	if len(got) != 0 {
		t.Fatalf("partial-word match must not resolve, got %v", ids(got))
	}
}

func TestResolveMentionsStripsMarkup(t *testing.T) {
	got := ResolveMentions("<p>escalating to <strong>@Omar</strong></p>", "u1", team)
	if len(got) != 1 || got[0].ID != "u3" {
		t.Fatalf("mention inside markup must resolve, got %v", ids(got))
	}
}

func TestResolveMentionsUnknownNameIsPlainText(t *testing.T) {
	got := ResolveMentions("@Nobody knows", "u1", team)
	if len(got) != 0 {
		t.Fatalf("unresolved mention must stay plain text, got %v", ids(got))
	}
}

func TestResolveMentionsNoMentions(t *testing.T) {
	if got := ResolveMentions("plain note without mentions", "u1", team); got != nil {
		t.Fatalf("expected nil, got %v", ids(got))
	}
}
