package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"maimai/internal/domain/models/chat"
)

// ParseKeyInformation decodes an extraction response. Models sometimes wrap
// JSON in a markdown fence, which is stripped first. An extraction with no
// content returns nil without error.
func ParseKeyInformation(raw string) (*chat.KeyInformation, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))
	if raw == "" {
		return nil, nil
	}

	var info chat.KeyInformation
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("parse key information: %w", err)
	}
	if info.IsEmpty() {
		return nil, nil
	}
	return &info, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
