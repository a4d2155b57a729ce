// Package embedder provides interfaces and implementations for text embedding.
package embedder

import "context"

// Embedder defines the interface for text embedding services. Chunks are
// embedded one at a time, at indexing and at query time.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	Dimension() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// ModelDimensions maps known embedding model names to their vector
// dimensions. Used to size vector index schemas at startup.
var ModelDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
}

// DimensionFor returns the vector dimension for a model, or the conservative
// default for unknown models.
func DimensionFor(modelName string) int {
	if dim, ok := ModelDimensions[modelName]; ok {
		return dim
	}
	return DefaultOllamaDimension
}
