package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
)

// StoreIndexModel records the embedding model and dimension the index
// was built with. Called after every successful ingestion.
func (h *ImagesDBHandler) StoreIndexModel(modelID string, embeddingDim int) error {
	_, err := h.db.Instance.Exec(
		`SELECT set_index_model($1, $2)`,
		modelID,
		embeddingDim,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// VerifyIndexModel checks the stored index model against the configured
// embedder. A missing record passes (empty index, nothing to mismatch);
// a differing model id or dimension fails with the model-mismatch kind.
func (h *ImagesDBHandler) VerifyIndexModel(modelID string, embeddingDim int) error {
	var storedModel string
	var storedDim int
	err := h.db.Instance.QueryRow(`SELECT * FROM select_index_model()`).Scan(&storedModel, &storedDim)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return helper.NewError("scan", err)
	}

	if storedModel != modelID || storedDim != embeddingDim {
		return helper.NewError(
			"verify index model",
			fmt.Errorf("index built with %s (%d dims), embedder is %s (%d dims): %w",
				storedModel, storedDim, modelID, embeddingDim, model.ErrModelMismatch),
		)
	}

	return nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
// indexType: "hnsw" or "ivfflat"
// params: optional parameters for index creation
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *ImagesDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	// Drop existing index
	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_images_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	// Create new index based on type
	var createIndexSQL string

	switch indexType {
	case "hnsw":
		m := 16
		efConstruction := 64

		if mVal, ok := params["m"].(int); ok {
			m = mVal
		}
		if efVal, ok := params["ef_construction"].(int); ok {
			efConstruction = efVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_images_embedding ON images USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case "ivfflat":
		lists := 100
		if listsVal, ok := params["lists"].(int); ok {
			lists = listsVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_images_embedding ON images USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	// Create the new index
	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index with params: %v", indexType, params))

	return nil
}
