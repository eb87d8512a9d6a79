package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the embedded
	// default or an error when none exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptExtraction is the system instruction for structured lab extraction.
	// It has no placeholders; the report text is sent as the user message.
	PromptExtraction = "extraction"

	// PromptQuerySystem frames the symptom query around retrieved report context.
	// The template expects a {{context}} placeholder.
	PromptQuerySystem = "query_system"

	// PromptSuggestionSystem frames lifestyle suggestions around the latest report.
	// It has no placeholders; the report payload is sent as the user message.
	PromptSuggestionSystem = "suggestion_system"
)

// ContextPlaceholder is replaced with retrieved or serialised report context.
const ContextPlaceholder = "{{context}}"
