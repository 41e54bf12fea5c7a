package chat

// Intent is the classified purpose of a message
type Intent string

const (
	IntentChat  Intent = "chat"
	IntentImage Intent = "image"
)

// IntentClassifier decides whether content asks for an image.
// Implementations can be swapped without touching the pipeline.
type IntentClassifier interface {
	ClassifyIntent(text string) Intent
}
