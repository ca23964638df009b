package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/wicketmedia/stumpsearch/core/pipeline"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// Retriever runs the full query-side retrieval flow: preprocessing,
// filter extraction, embedding and index search with a single
// filter-relaxation retry.
type Retriever struct {
	engine   *Engine
	pipeline *pipeline.Pipeline
	filters  *FilterExtractor
	log      *slog.Logger

	// blocked holds the model-mismatch error when the index was built
	// with a different embedder; cleared by a successful reindex.
	// Written by Block/Unblock while queries read it concurrently.
	mu      sync.RWMutex
	blocked error
}

// NewRetriever creates a new retriever
func NewRetriever(engine *Engine, pipe *pipeline.Pipeline, filters *FilterExtractor, logger *slog.Logger) *Retriever {
	return &Retriever{
		engine:   engine,
		pipeline: pipe,
		filters:  filters,
		log:      logger,
	}
}

// Block prevents all retrieval until Unblock is called
func (r *Retriever) Block(err error) {
	r.mu.Lock()
	r.blocked = err
	r.mu.Unlock()
}

// Unblock clears a previous Block
func (r *Retriever) Unblock() {
	r.mu.Lock()
	r.blocked = nil
	r.mu.Unlock()
}

// Retrieve processes a query end to end. The query's Normalized and
// Embedding fields are filled in place. If extracted filters yield
// zero matches, the search is retried exactly once without filters;
// the returned result keeps the extracted filters and is marked
// Relaxed. An empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query *model.Query, config *model.QueryConfig) (*model.RetrievalResult, error) {
	r.mu.RLock()
	blocked := r.blocked
	r.mu.RUnlock()
	if blocked != nil {
		return nil, blocked
	}
	if query == nil || strings.TrimSpace(query.Raw) == "" {
		return nil, helper.NewError("validate query", fmt.Errorf("query text is empty: %w", model.ErrValidation))
	}
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	query.Normalized = r.pipeline.Preprocessor.Normalize(query.Raw)

	// Best effort, never a hard failure
	filters := r.filters.Extract(query.Raw, query.Normalized)

	embedding, err := r.pipeline.Embedder.Embed(query.Normalized)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	query.Embedding = embedding

	result, err := r.engine.VectorRetrieve(ctx, embedding, config, filters)
	if errors.Is(err, model.ErrEmptyIndex) {
		r.log.Warn("Search against empty index", slog.String("query", query.Normalized))
		return &model.RetrievalResult{Filters: filters}, nil
	}
	if err != nil {
		return nil, err
	}

	if result.Empty() && !filters.Empty() {
		r.log.Info("No matches with filters, retrying unfiltered", slog.String("query", query.Normalized))

		relaxed, err := r.engine.VectorRetrieve(ctx, embedding, config, model.Filters{})
		if err != nil {
			return nil, err
		}
		relaxed.Filters = filters
		relaxed.Relaxed = true
		return relaxed, nil
	}

	return result, nil
}
