package pipeline

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/knights-analytics/hugot"
	"github.com/wicketmedia/stumpsearch/helper"
)

// Default embedding model configuration.
const (
	DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultEmbeddingDim   = 384
	defaultCacheSize      = 1024
)

// Embedder generates embeddings for text. Embeddings are a pure
// function of text and model id; a bounded LRU cache avoids repeated
// computation without affecting correctness. Safe for concurrent use.
type Embedder struct {
	modelID   string
	dimension int

	// mu serializes calls into the underlying model runtime
	mu  sync.Mutex
	run func(texts []string) ([][]float32, error)

	cache *lru.Cache[string, []float32]
}

// DefaultEmbedder creates an embedder using a real sentence transformer model
// Uses the all-MiniLM-L6-v2 model which produces 384-dimensional embeddings
func DefaultEmbedder() (*Embedder, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(DefaultEmbeddingModel)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create sentence transformers pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return NewEmbedderFromFunc(DefaultEmbeddingModel, DefaultEmbeddingDim, func(texts []string) ([][]float32, error) {
		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(result.Embeddings) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
		}
		return result.Embeddings, nil
	})
}

// NewEmbedderFromFunc creates an embedder around a raw embedding
// function. Used for alternative backends and in tests.
func NewEmbedderFromFunc(modelID string, dimension int, run func(texts []string) ([][]float32, error)) (*Embedder, error) {
	if run == nil {
		return nil, fmt.Errorf("embedding function is nil")
	}

	cache, err := lru.New[string, []float32](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return &Embedder{
		modelID:   modelID,
		dimension: dimension,
		run:       run,
		cache:     cache,
	}, nil
}

// ModelID returns the identifier of the embedding model
func (e *Embedder) ModelID() string {
	return e.modelID
}

// Dimension returns the embedding dimension of the model
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates the embedding for a single text
func (e *Embedder) Embed(text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one model run.
// Cached texts are served from the cache; only misses hit the model.
func (e *Embedder) EmbedBatch(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	var missing []string
	var missingIndexes []int
	for i, text := range texts {
		if cached, ok := e.cache.Get(text); ok {
			embeddings[i] = cached
			continue
		}
		missing = append(missing, text)
		missingIndexes = append(missingIndexes, i)
	}

	if len(missing) == 0 {
		return embeddings, nil
	}

	e.mu.Lock()
	computed, err := e.run(missing)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(computed))
	}

	for i, embedding := range computed {
		if e.dimension > 0 && len(embedding) != e.dimension {
			return nil, fmt.Errorf("expected %d-dimensional embedding, got %d dimensions", e.dimension, len(embedding))
		}
		e.cache.Add(missing[i], embedding)
		embeddings[missingIndexes[i]] = embedding
	}

	return embeddings, nil
}
