package config

const (
	// MaxProjectNameLength fits VARCHAR(255)
	MaxProjectNameLength = 255

	// MaxThreadTitleLength fits VARCHAR(255)
	MaxThreadTitleLength = 255

	// AutoTitleLength is how much of the first message becomes a new thread's title
	AutoTitleLength = 50

	// MaxMessageLength bounds a single chat message
	MaxMessageLength = 100_000

	// MaxSystemPromptLength bounds project and thread system prompts
	MaxSystemPromptLength = 20_000

	// MaxPDFSize is the largest accepted PDF upload (20MB)
	MaxPDFSize = 20 << 20

	// MaxImportQueries bounds one playlist import request
	MaxImportQueries = 200

	// MaxSocialPostLength bounds a page post
	MaxSocialPostLength = 63_206
)
