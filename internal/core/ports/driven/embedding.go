package driven

import "context"

// EmbeddingService maps text to vectors. Chunks and queries for one index
// must go through the same model, since vectors from different models are
// not comparable.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length; the index collection is created with it.
	Dimensions() int

	ModelName() string

	// Ping checks connectivity and credentials without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
