package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/wicketmedia/stumpsearch/helper"
)

// GroundingRef records one retrieved image a chat answer was based on.
type GroundingRef struct {
	ImageID string  `json:"image_id"`
	Score   float64 `json:"score"`
}

// GroundingRefs is stored as JSONB alongside each chat turn.
type GroundingRefs []GroundingRef

// Value implements the driver.Valuer interface for database storage
func (g GroundingRefs) Value() (driver.Value, error) {
	return g.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (g *GroundingRefs) Scan(value interface{}) error {
	return g.Unmarshal(value)
}

// Marshal converts GroundingRefs to JSON bytes
func (g GroundingRefs) Marshal() ([]byte, error) {
	if g == nil {
		return json.Marshal(GroundingRefs{})
	}
	return json.Marshal(g)
}

// Unmarshal converts JSON bytes or GroundingRefs to GroundingRefs
func (g *GroundingRefs) Unmarshal(value interface{}) error {
	if value == nil {
		*g = GroundingRefs{}
		return nil
	}

	if s, ok := value.(GroundingRefs); ok {
		*g = s
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, g)
}
