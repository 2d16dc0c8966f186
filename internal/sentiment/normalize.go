package sentiment

import "strings"

const (
	mentionToken = "@user"
	linkToken    = "http"
)

// Normalize rewrites mentions and links into the placeholder tokens the
// twitter-roberta models were trained on. Tokens are split on single spaces
// only so runs of spaces, tabs and newlines survive untouched.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	words := strings.Split(text, " ")
	for i, word := range words {
		switch {
		case strings.HasPrefix(word, "@") && len(word) > 1:
			words[i] = mentionToken
		case strings.HasPrefix(word, "http"):
			words[i] = linkToken
		}
	}

	return strings.Join(words, " ")
}
