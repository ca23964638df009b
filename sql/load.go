package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed images.sql
var imagesSQL string

//go:embed vocab.sql
var vocabSQL string

//go:embed chats.sql
var chatsSQL string

// Function lists for verification
var ImagesFunctions = []string{
	"init_images",
	"insert_image",
	"select_image",
	"select_images_by_similarity",
	"delete_image",
	"count_images",
	"set_index_model",
	"select_index_model",
}

var VocabFunctions = []string{
	"init_vocab",
	"insert_vocab_term",
	"select_vocab_terms",
	"select_all_vocab_terms",
	"delete_vocab_term",
}

var ChatsFunctions = []string{
	"init_chats",
	"insert_chat_turn",
	"select_recent_turns",
	"count_session_turns",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadImagesSql loads image-index SQL functions
func LoadImagesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ImagesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing images functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(imagesSQL)
	if err != nil {
		return fmt.Errorf("error executing images SQL: %w", err)
	}

	exist, err := checkFunctions(db, ImagesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL images functions loaded successfully")
	return nil
}

// LoadVocabSql loads vocabulary SQL functions
func LoadVocabSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, VocabFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing vocab functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(vocabSQL)
	if err != nil {
		return fmt.Errorf("error executing vocab SQL: %w", err)
	}

	exist, err := checkFunctions(db, VocabFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL vocab functions loaded successfully")
	return nil
}

// LoadChatsSql loads chat-history SQL functions
func LoadChatsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ChatsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing chats functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(chatsSQL)
	if err != nil {
		return fmt.Errorf("error executing chats SQL: %w", err)
	}

	exist, err := checkFunctions(db, ChatsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL chats functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadImagesSql(db, force); err != nil {
		return err
	}

	if err := LoadVocabSql(db, force); err != nil {
		return err
	}

	if err := LoadChatsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
