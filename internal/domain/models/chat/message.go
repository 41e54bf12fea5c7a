package chat

import (
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single entry in a thread.
//
// Billed assistant messages carry a non-nil Model and a CreditCost that is
// computed once at save time and never recomputed.
type Message struct {
	ID             string          `json:"id" db:"id"`
	ThreadID       string          `json:"thread_id" db:"thread_id"`
	Role           string          `json:"role" db:"role"`
	Content        string          `json:"content" db:"content"`
	Model          *string         `json:"model,omitempty" db:"model"`
	InputTokens    int             `json:"input_tokens" db:"input_tokens"`
	OutputTokens   int             `json:"output_tokens" db:"output_tokens"`
	CreditCost     int             `json:"credit_cost" db:"credit_cost"`
	TenXCost       float64         `json:"ten_x_cost" db:"ten_x_cost"`
	Summary        *string         `json:"summary,omitempty" db:"summary"`
	KeyInformation *KeyInformation `json:"key_information,omitempty" db:"key_information"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// HasSummary reports whether a non-empty summary is attached
func (m *Message) HasSummary() bool {
	return m.Summary != nil && *m.Summary != ""
}

// KeyInformation is the best-effort structured extraction attached to a message.
type KeyInformation struct {
	Entities []string `json:"entities,omitempty"`
	Phrases  []string `json:"phrases,omitempty"`
	Verbs    []string `json:"verbs,omitempty"`
	Triples  []Triple `json:"svo_triples,omitempty"`
}

// Triple is a subject-verb-object relation
type Triple struct {
	Subject string `json:"subject"`
	Verb    string `json:"verb"`
	Object  string `json:"object"`
}

// IsEmpty reports whether the extraction produced nothing usable
func (k *KeyInformation) IsEmpty() bool {
	return k == nil || (len(k.Entities) == 0 && len(k.Phrases) == 0 && len(k.Verbs) == 0 && len(k.Triples) == 0)
}
