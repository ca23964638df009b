package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
	loadSql "github.com/wicketmedia/stumpsearch/sql"
)

// VocabularyDBHandlerFunctions defines the interface for vocabulary database operations.
type VocabularyDBHandlerFunctions interface {
	InsertTerm(term *model.VocabTerm) error
	DeleteTerm(id int64) error
	SelectTerms(kind string) ([]*model.VocabTerm, error)
	SelectAllTerms() ([]*model.VocabTerm, error)
}

// VocabularyDBHandler handles tag vocabulary database operations
type VocabularyDBHandler struct {
	db *helper.Database
}

// NewVocabularyDBHandler creates a new vocabulary database handler.
// It initializes the database connection and loads vocabulary-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVocabularyDBHandler(db *helper.Database, force bool) (*VocabularyDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	vocabDbHandler := &VocabularyDBHandler{
		db: db,
	}

	err := loadSql.LoadVocabSql(vocabDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load vocab sql", err)
	}

	err = vocabDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VocabularyDBHandler")

	return vocabDbHandler, nil
}

// CreateTable creates the 'vocabulary' table in the database.
// If the table already exists, it does not create it again.
func (h *VocabularyDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_vocab();`)
	if err != nil {
		log.Panicf("error initializing vocabulary table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table vocabulary")

	return nil
}

// InsertTerm inserts a new vocabulary term (or updates if exists)
func (h *VocabularyDBHandler) InsertTerm(term *model.VocabTerm) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_vocab_term($1, $2, $3)`,
		term.Kind,
		term.Term,
		term.Canonical,
	)

	err := row.Scan(
		&term.ID,
		&term.Kind,
		&term.Term,
		&term.Canonical,
		&term.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteTerm deletes a vocabulary term by ID
func (h *VocabularyDBHandler) DeleteTerm(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_vocab_term($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectTerms retrieves all vocabulary terms of one kind
func (h *VocabularyDBHandler) SelectTerms(kind string) ([]*model.VocabTerm, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_vocab_terms($1)`,
		kind,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var terms []*model.VocabTerm
	for rows.Next() {
		term := &model.VocabTerm{}
		err := rows.Scan(
			&term.ID,
			&term.Kind,
			&term.Term,
			&term.Canonical,
			&term.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		terms = append(terms, term)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return terms, nil
}

// SelectAllTerms retrieves the complete vocabulary
func (h *VocabularyDBHandler) SelectAllTerms() ([]*model.VocabTerm, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_vocab_terms()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var terms []*model.VocabTerm
	for rows.Next() {
		term := &model.VocabTerm{}
		err := rows.Scan(
			&term.ID,
			&term.Kind,
			&term.Term,
			&term.Canonical,
			&term.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		terms = append(terms, term)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return terms, nil
}
