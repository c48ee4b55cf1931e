package notes

import (
	"regexp"
	"strings"

	"crewbox/models"
	"crewbox/utils"
)

// mentionPattern matches "@" followed by letters, digits and spaces, ending
// at the first sentence-terminating character.
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9 ]*)`)

// ResolveMentions scans note content for @-mentions and resolves them
// against the directory. Markup is stripped first; candidates are matched
// case-insensitively against display names. The note's author never matches
// (no self-notification), and each mentioned user appears at most once no
// matter how many times the text mentions them. Tokens that resolve to
// nobody are simply plain text.
func ResolveMentions(content, authorID string, users []models.DirectoryUser) []models.DirectoryUser {
	text := utils.StripHTML(content)

	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var mentioned []models.DirectoryUser

	for _, m := range matches {
		candidate := strings.ToLower(strings.TrimSpace(m[1]))
		if candidate == "" {
			continue
		}
		for _, u := range users {
			if u.ID == authorID || seen[u.ID] {
				continue
			}
			if matchesName(candidate, strings.ToLower(u.Name)) {
				seen[u.ID] = true
				mentioned = append(mentioned, u)
			}
		}
	}

	return mentioned
}

// matchesName reports whether the candidate token begins with the display
// name, either exactly or followed by more words ("@Jane Doe thanks").
func matchesName(candidate, name string) bool {
	if name == "" {
		return false
	}
	if !strings.HasPrefix(candidate, name) {
		return false
	}
	return len(candidate) == len(name) || candidate[len(name)] == ' '
}
