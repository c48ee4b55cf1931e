package utils

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy strips all markup, leaving plain text
	StrictPolicy *bluemonday.Policy
	// NotePolicy allows the rich-text subset used in internal notes
	NotePolicy *bluemonday.Policy
)

func init() {
	StrictPolicy = bluemonday.StrictPolicy()

	NotePolicy = bluemonday.UGCPolicy()

	// Allow additional safe elements for note content
	NotePolicy.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	NotePolicy.AllowElements("strong", "em", "u", "s", "code", "pre")
	NotePolicy.AllowElements("ul", "ol", "li")
	NotePolicy.AllowElements("blockquote")
	NotePolicy.AllowElements("a", "img")

	NotePolicy.AllowAttrs("href").OnElements("a")
	NotePolicy.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	NotePolicy.AllowAttrs("class").Globally()

	NotePolicy.RequireParseableURLs(true)
	NotePolicy.AllowURLSchemes("http", "https", "mailto")
}

// SanitizeNoteHTML sanitizes note rich text using the note policy
func SanitizeNoteHTML(html string) string {
	return NotePolicy.Sanitize(html)
}

// StripHTML removes all HTML tags from content
func StripHTML(html string) string {
	return StrictPolicy.Sanitize(html)
}
