package domain

// IndexOutcome is the checked result of ensuring the user metadata index exists.
type IndexOutcome string

// Index outcomes.
const (
	IndexCreated        IndexOutcome = "created"
	IndexAlreadyPresent IndexOutcome = "already_present"
)

// DefaultRetrievalK is the number of chunks retrieved for a symptom query.
const DefaultRetrievalK = 5

// Answer is the result of a symptom query.
type Answer struct {
	// Text is the model response, returned unmodified.
	Text string

	// Sources are the chunks that were placed in the prompt context.
	Sources []ChunkHit
}

// Suggestion is the result of a suggestion request.
type Suggestion struct {
	Text string

	// Record is the report the suggestion was grounded on.
	Record *ReportRecord
}
