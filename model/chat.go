package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one question and answer pair of a session. Turns are
// append-only; a session's history never changes once written.
type ChatTurn struct {
	ID                 int64         `json:"id"`
	SessionID          uuid.UUID     `json:"session_id"`
	Question           string        `json:"question"`
	NormalizedQuestion string        `json:"normalized_question,omitempty"`
	Grounding          GroundingRefs `json:"grounding,omitempty"`
	Answer             string        `json:"answer"`
	CreatedAt          time.Time     `json:"created_at"`
}
