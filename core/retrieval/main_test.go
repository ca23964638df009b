package retrieval

import (
	"context"
	"hash/fnv"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/wicketmedia/stumpsearch/core/pipeline"
	"github.com/wicketmedia/stumpsearch/database"
	"github.com/wicketmedia/stumpsearch/helper"
	loadSql "github.com/wicketmedia/stumpsearch/sql"
)

// Embedding dimension shared by all tests in this package; the images
// table keeps the dimension of its first creation.
const testEmbeddingDim = 8

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

// testEmbedder hashes words into a fixed number of buckets and
// normalizes the count vector. Shared words mean higher cosine
// similarity, which is enough structure for retrieval tests.
func testEmbedder(t *testing.T) *pipeline.Embedder {
	t.Helper()

	embedder, err := pipeline.NewEmbedderFromFunc("bag-of-words-test", testEmbeddingDim, func(texts []string) ([][]float32, error) {
		embeddings := make([][]float32, len(texts))
		for i, text := range texts {
			embeddings[i] = bagOfWordsEmbedding(text)
		}
		return embeddings, nil
	})
	require.NoError(t, err)

	return embedder
}

func bagOfWordsEmbedding(text string) []float32 {
	embedding := make([]float32, testEmbeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,:!?")
		if word == "" {
			continue
		}
		hash := fnv.New32a()
		hash.Write([]byte(word))
		embedding[hash.Sum32()%testEmbeddingDim]++
	}

	var norm float64
	for _, value := range embedding {
		norm += float64(value * value)
	}
	if norm == 0 {
		embedding[0] = 1
		return embedding
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range embedding {
		embedding[i] *= scale
	}
	return embedding
}

func initRetriever(t *testing.T) (*database.ImagesDBHandler, *pipeline.Pipeline, *Retriever) {
	t.Helper()

	db := initDB(t)

	images, err := database.NewImagesDBHandler(db, testEmbeddingDim, true)
	require.NoError(t, err)

	preprocessor, err := pipeline.NewPreprocessor()
	require.NoError(t, err)

	pipe := pipeline.NewPipeline(pipeline.DefaultNormalizer(), testEmbedder(t), preprocessor)
	extractor := NewFilterExtractorFromTerms(testVocabTerms())
	retriever := NewRetriever(NewEngine(images), pipe, extractor, db.Logger)

	return images, pipe, retriever
}
