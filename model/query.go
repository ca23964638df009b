package model

import (
	"time"

	"github.com/google/uuid"
)

// Query represents one user question flowing through the pipeline
type Query struct {
	SessionID  uuid.UUID `json:"session_id"`
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Answer generation parameters
	HistoryTurns    int `json:"history_turns"`
	MaxAnswerTokens int `json:"max_answer_tokens"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0.4,
		HistoryTurns:        6,
		MaxAnswerTokens:     512,
	}
}
