package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
	loadSql "github.com/wicketmedia/stumpsearch/sql"
)

// ImagesDBHandlerFunctions defines the interface for image index database operations.
type ImagesDBHandlerFunctions interface {
	UpsertImage(record *model.ImageRecord) error
	DeleteImage(imageID string) error
	SelectImage(imageID string) (*model.ImageRecord, error)
	SelectImagesBySimilarity(embedding []float32, limit int, threshold float64, filters model.Filters) ([]*model.ImageRecord, error)
	CountImages() (int64, error)
	StoreIndexModel(modelID string, embeddingDim int) error
	VerifyIndexModel(modelID string, embeddingDim int) error
}

// ImagesDBHandler handles image-index database operations
type ImagesDBHandler struct {
	db *helper.Database
}

// NewImagesDBHandler creates a new image index database handler.
// It initializes the database connection and loads image-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewImagesDBHandler(db *helper.Database, embeddingDim int, force bool) (*ImagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	imagesDbHandler := &ImagesDBHandler{
		db: db,
	}

	err := loadSql.LoadImagesSql(imagesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load images sql", err)
	}

	err = imagesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ImagesDBHandler")

	return imagesDbHandler, nil
}

// CreateTable creates the 'images' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ImagesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_images($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing images table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table images")

	return nil
}

// UpsertImage inserts a new image record or replaces an existing one
// with the same image id
func (h *ImagesDBHandler) UpsertImage(record *model.ImageRecord) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_image($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ImageID,
		record.ImageURL,
		record.Tags.Action,
		record.Tags.Event,
		record.Tags.Mood,
		record.Tags.Player,
		record.Tags.SubLocation,
		record.Description,
		pq.Array(record.Embedding),
	)

	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.ImageID,
		&record.ImageURL,
		&record.Tags.Action,
		&record.Tags.Event,
		&record.Tags.Mood,
		&record.Tags.Player,
		&record.Tags.SubLocation,
		&record.Description,
		pq.Array(&record.Embedding),
		&record.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteImage deletes an image record by its image id
func (h *ImagesDBHandler) DeleteImage(imageID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_image($1)`,
		imageID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectImage retrieves an image record by its image id
func (h *ImagesDBHandler) SelectImage(imageID string) (*model.ImageRecord, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_image($1)`,
		imageID,
	)

	record := &model.ImageRecord{}
	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.ImageID,
		&record.ImageURL,
		&record.Tags.Action,
		&record.Tags.Event,
		&record.Tags.Mood,
		&record.Tags.Player,
		&record.Tags.SubLocation,
		&record.Description,
		pq.Array(&record.Embedding),
		&record.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return record, nil
}

// SelectImagesBySimilarity performs cosine similarity search with tag
// pre-filtering. Empty filter fields are unconstrained.
func (h *ImagesDBHandler) SelectImagesBySimilarity(embedding []float32, limit int, threshold float64, filters model.Filters) ([]*model.ImageRecord, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_images_by_similarity($1, $2, $3, $4, $5, $6, $7, $8)`,
		embeddingVector,
		limit,
		threshold,
		filters.Action,
		filters.Event,
		filters.Mood,
		filters.Player,
		filters.SubLocation,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.ImageRecord
	for rows.Next() {
		record := &model.ImageRecord{}
		err := rows.Scan(
			&record.ID,
			&record.RID,
			&record.ImageID,
			&record.ImageURL,
			&record.Tags.Action,
			&record.Tags.Event,
			&record.Tags.Mood,
			&record.Tags.Player,
			&record.Tags.SubLocation,
			&record.Description,
			pq.Array(&record.Embedding),
			&record.CreatedAt,
			&record.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// CountImages returns the number of indexed images
func (h *ImagesDBHandler) CountImages() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_images()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}
