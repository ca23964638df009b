package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/wicketmedia/stumpsearch/helper"
	"github.com/wicketmedia/stumpsearch/model"
	loadSql "github.com/wicketmedia/stumpsearch/sql"
)

// ChatsDBHandlerFunctions defines the interface for chat history database operations.
type ChatsDBHandlerFunctions interface {
	AppendTurn(turn *model.ChatTurn) error
	SelectRecentTurns(sessionID uuid.UUID, limit int) ([]*model.ChatTurn, error)
	CountSessionTurns(sessionID uuid.UUID) (int64, error)
}

// ChatsDBHandler handles chat history database operations.
// Turns are append-only, there is no update or delete.
type ChatsDBHandler struct {
	db *helper.Database
}

// NewChatsDBHandler creates a new chat history database handler.
// It initializes the database connection and loads chat-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChatsDBHandler(db *helper.Database, force bool) (*ChatsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chatsDbHandler := &ChatsDBHandler{
		db: db,
	}

	err := loadSql.LoadChatsSql(chatsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chats sql", err)
	}

	err = chatsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChatsDBHandler")

	return chatsDbHandler, nil
}

// CreateTable creates the 'chat_turns' table in the database.
// If the table already exists, it does not create it again.
func (h *ChatsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chats();`)
	if err != nil {
		log.Panicf("error initializing chat_turns table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chat_turns")

	return nil
}

// AppendTurn appends a new turn to a session
func (h *ChatsDBHandler) AppendTurn(turn *model.ChatTurn) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chat_turn($1, $2, $3, $4, $5)`,
		turn.SessionID,
		turn.Question,
		turn.NormalizedQuestion,
		turn.Grounding,
		turn.Answer,
	)

	err := row.Scan(
		&turn.ID,
		&turn.SessionID,
		&turn.Question,
		&turn.NormalizedQuestion,
		&turn.Grounding,
		&turn.Answer,
		&turn.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRecentTurns retrieves the last n turns of a session, oldest first
func (h *ChatsDBHandler) SelectRecentTurns(sessionID uuid.UUID, limit int) ([]*model.ChatTurn, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_recent_turns($1, $2)`,
		sessionID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var turns []*model.ChatTurn
	for rows.Next() {
		turn := &model.ChatTurn{}
		err := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&turn.Question,
			&turn.NormalizedQuestion,
			&turn.Grounding,
			&turn.Answer,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		turns = append(turns, turn)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return turns, nil
}

// CountSessionTurns returns the number of turns in a session
func (h *ChatsDBHandler) CountSessionTurns(sessionID uuid.UUID) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(
		`SELECT count_session_turns($1)`,
		sessionID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}
