package retrieval

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicketmedia/stumpsearch/core/pipeline"
	"github.com/wicketmedia/stumpsearch/database"
	"github.com/wicketmedia/stumpsearch/model"
)

func newTestQuery(raw string) *model.Query {
	return &model.Query{
		SessionID: uuid.New(),
		Raw:       raw,
	}
}

func testQueryConfig() *model.QueryConfig {
	return &model.QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0,
		HistoryTurns:        6,
		MaxAnswerTokens:     512,
	}
}

func seedImageRecords(t *testing.T, images *database.ImagesDBHandler, pipe *pipeline.Pipeline) {
	t.Helper()

	records := []*model.ImageRecord{
		{
			ImageID:  "img-bat",
			ImageURL: "https://example.com/img-bat.jpg",
			Tags:     model.Tags{Action: "batting", Player: "David Smith"},
		},
		{
			ImageID:  "img-bowl",
			ImageURL: "https://example.com/img-bowl.jpg",
			Tags:     model.Tags{Action: "bowling", Player: "David Smith"},
		},
		{
			ImageID:  "img-cel",
			ImageURL: "https://example.com/img-cel.jpg",
			Tags:     model.Tags{Mood: "celebration", Player: "Ravi Patel"},
		},
	}

	for _, record := range records {
		require.NoError(t, pipe.Process(record))
		require.NoError(t, images.UpsertImage(record))
	}
}

func TestRetrieveAgainstEmptyIndex(t *testing.T) {
	images, _, retriever := initRetriever(t)

	t.Run("Engine fails with the empty-index kind", func(t *testing.T) {
		embedding := bagOfWordsEmbedding("smith batting")
		_, err := NewEngine(images).VectorRetrieve(context.Background(), embedding, testQueryConfig(), model.Filters{})
		assert.ErrorIs(t, err, model.ErrEmptyIndex)
	})

	t.Run("Retriever returns an empty result instead of an error", func(t *testing.T) {
		query := newTestQuery("Show me Smith batting")

		result, err := retriever.Retrieve(context.Background(), query, testQueryConfig())
		require.NoError(t, err, "Expected an empty index to not fail retrieval")
		require.NotNil(t, result)
		assert.True(t, result.Empty())
		assert.Equal(t, "David Smith", result.Filters.Player, "Expected extracted filters to be kept")
	})
}

func TestRetrieve(t *testing.T) {
	images, pipe, retriever := initRetriever(t)
	seedImageRecords(t, images, pipe)

	t.Run("Query fields are filled in place", func(t *testing.T) {
		query := newTestQuery("Show me cricket photos")

		_, err := retriever.Retrieve(context.Background(), query, testQueryConfig())
		require.NoError(t, err)
		assert.NotEmpty(t, query.Normalized)
		assert.Len(t, query.Embedding, testEmbeddingDim)
	})

	t.Run("Extracted filters narrow the results", func(t *testing.T) {
		query := newTestQuery("Show me Smith bowling")

		result, err := retriever.Retrieve(context.Background(), query, testQueryConfig())
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)

		assert.Equal(t, "img-bowl", result.Matches[0].ImageID)
		assert.Equal(t, "David Smith", result.Filters.Player)
		assert.Equal(t, "bowling", result.Filters.Action)
		assert.False(t, result.Relaxed)
	})

	t.Run("Query without known terms searches unfiltered", func(t *testing.T) {
		query := newTestQuery("some wide angle shots")

		result, err := retriever.Retrieve(context.Background(), query, testQueryConfig())
		require.NoError(t, err)
		assert.True(t, result.Filters.Empty())
		assert.Len(t, result.Matches, 3)
		assert.False(t, result.Relaxed)
	})

	t.Run("Zero filtered matches relaxes exactly once", func(t *testing.T) {
		// No record is tagged with both Ravi Patel and batting
		query := newTestQuery("Ravi Patel batting")

		result, err := retriever.Retrieve(context.Background(), query, testQueryConfig())
		require.NoError(t, err)

		assert.True(t, result.Relaxed, "Expected the result to be marked relaxed")
		assert.Equal(t, "Ravi Patel", result.Filters.Player, "Expected extracted filters to be kept on the relaxed result")
		assert.Equal(t, "batting", result.Filters.Action)
		assert.Len(t, result.Matches, 3, "Expected the unfiltered retry to search the whole index")
	})

	t.Run("Grounding covers all matches", func(t *testing.T) {
		query := newTestQuery("Show me Smith bowling")

		result, err := retriever.Retrieve(context.Background(), query, testQueryConfig())
		require.NoError(t, err)

		grounding := result.Grounding()
		require.Len(t, grounding, len(result.Matches))
		assert.Equal(t, result.Matches[0].ImageID, grounding[0].ImageID)
		assert.Equal(t, result.Matches[0].Score, grounding[0].Score)
	})

	t.Run("Nil config falls back to defaults", func(t *testing.T) {
		query := newTestQuery("Show me Smith bowling")

		result, err := retriever.Retrieve(context.Background(), query, nil)
		require.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("Empty query fails validation", func(t *testing.T) {
		_, err := retriever.Retrieve(context.Background(), newTestQuery("   "), testQueryConfig())
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = retriever.Retrieve(context.Background(), nil, testQueryConfig())
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestRetrieverBlock(t *testing.T) {
	images, pipe, retriever := initRetriever(t)
	seedImageRecords(t, images, pipe)

	mismatch := fmt.Errorf("index built with other-model: %w", model.ErrModelMismatch)

	t.Run("Blocked retriever rejects all queries", func(t *testing.T) {
		retriever.Block(mismatch)

		_, err := retriever.Retrieve(context.Background(), newTestQuery("Show me Smith batting"), testQueryConfig())
		assert.ErrorIs(t, err, model.ErrModelMismatch)
	})

	t.Run("Unblock restores retrieval", func(t *testing.T) {
		retriever.Unblock()

		result, err := retriever.Retrieve(context.Background(), newTestQuery("Show me Smith batting"), testQueryConfig())
		require.NoError(t, err)
		assert.False(t, result.Empty())
	})

	t.Run("Block and Unblock are safe during concurrent queries", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, err := retriever.Retrieve(context.Background(), newTestQuery("Show me Smith batting"), testQueryConfig())
				if err != nil {
					assert.ErrorIs(t, err, model.ErrModelMismatch)
				}
			}
		}()

		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				retriever.Block(mismatch)
				retriever.Unblock()
			}
		}()

		wg.Wait()

		retriever.Unblock()
	})
}
