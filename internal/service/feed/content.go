package feed

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// contentConverter turns feed item HTML into markdown.
// Sanitising runs first so scripts, event handlers and javascript: URLs
// never reach the converter. Safe for concurrent use.
type contentConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

func newContentConverter() *contentConverter {
	return &contentConverter{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// Convert sanitises html and converts it to markdown
func (c *contentConverter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	sanitized := c.policy.Sanitize(html)

	markdown, err := c.converter.ConvertString(sanitized)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return strings.TrimSpace(markdown), nil
}
