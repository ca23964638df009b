package retrieval

import (
	"context"

	"github.com/wicketmedia/stumpsearch/database"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// Engine performs similarity search against the image index
type Engine struct {
	images *database.ImagesDBHandler
}

// NewEngine creates a new retrieval engine
func NewEngine(images *database.ImagesDBHandler) *Engine {
	return &Engine{
		images: images,
	}
}

// VectorRetrieve performs cosine similarity search with tag
// pre-filtering. An empty index fails with the empty-index kind; a
// populated index where no row passes the filters returns an empty
// result.
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.QueryConfig, filters model.Filters) (*model.RetrievalResult, error) {
	count, err := e.images.CountImages()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, helper.NewError("vector retrieve", model.ErrEmptyIndex)
	}

	records, err := e.images.SelectImagesBySimilarity(embedding, config.TopK, config.SimilarityThreshold, filters)
	if err != nil {
		return nil, err
	}

	matches := make([]*model.Match, len(records))
	for i, record := range records {
		matches[i] = &model.Match{
			ImageID:     record.ImageID,
			ImageURL:    record.ImageURL,
			Tags:        record.Tags,
			Description: record.Description,
			Score:       record.Similarity,
		}
	}

	return &model.RetrievalResult{
		Matches: matches,
		Filters: filters,
	}, nil
}
