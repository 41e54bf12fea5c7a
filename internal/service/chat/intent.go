package chat

import (
	"strings"
	"unicode"

	chatSvc "maimai/internal/domain/services/chat"
)

// imagePhrases classify a message as an image request on their own
var imagePhrases = []string{
	"create an image",
	"generate an image",
	"make an image",
	"draw",
	"show me a picture",
	"visualize",
}

// imageKeywords need at least two hits to classify as an image request
var imageKeywords = []string{
	"image", "picture", "photo", "drawing", "illustration",
	"generate", "create", "make", "draw", "paint", "artwork",
	"visual", "render", "show me", "dall-e", "dalle", "ai image",
}

const minKeywordHits = 2

// KeywordClassifier flags image requests by phrase and keyword matching.
// Matching is case-insensitive and anchored at word starts, so "withdraw"
// is not "draw". The last word may carry an inflection ("images", "drawing").
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default intent classifier
func NewKeywordClassifier() chatSvc.IntentClassifier {
	return KeywordClassifier{}
}

// ClassifyIntent returns IntentImage for image requests and IntentChat otherwise
func (KeywordClassifier) ClassifyIntent(text string) chatSvc.Intent {
	normalized := normalize(text)
	if normalized == "" {
		return chatSvc.IntentChat
	}

	for _, phrase := range imagePhrases {
		if containsWords(normalized, phrase) {
			return chatSvc.IntentImage
		}
	}

	hits := 0
	for _, keyword := range imageKeywords {
		if containsWords(normalized, keyword) {
			hits++
		}
	}
	if hits >= minKeywordHits {
		return chatSvc.IntentImage
	}

	return chatSvc.IntentChat
}

// normalize lowercases text and collapses punctuation into single spaces,
// keeping hyphens so "dall-e" survives.
func normalize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	return strings.Join(fields, " ")
}

// inflections are the suffixes accepted after a keyword or phrase
var inflections = map[string]bool{
	"": true, "s": true, "es": true, "ed": true, "n": true, "ing": true, "ings": true,
}

func containsWords(normalized, phrase string) bool {
	haystack := " " + normalized + " "
	needle := " " + phrase
	for offset := 0; ; {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			return false
		}
		rest := haystack[offset+i+len(needle):]
		if inflections[rest[:strings.IndexByte(rest, ' ')]] {
			return true
		}
		offset += i + 1
	}
}
