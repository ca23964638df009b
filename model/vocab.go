package model

import "time"

// Vocabulary kinds, one per tag dimension.
const (
	VocabKindAction      = "action"
	VocabKindEvent       = "event"
	VocabKindMood        = "mood"
	VocabKindPlayer      = "player"
	VocabKindSubLocation = "sublocation"
)

// VocabKinds lists all tag dimensions in canonical order.
var VocabKinds = []string{
	VocabKindAction,
	VocabKindEvent,
	VocabKindMood,
	VocabKindPlayer,
	VocabKindSubLocation,
}

// VocabTerm is one recognizable term of the tag vocabulary.
// Term is the surface form matched against queries (for players this
// includes name variations), Canonical is the tag value stored on
// image records.
type VocabTerm struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Term      string    `json:"term"`
	Canonical string    `json:"canonical"`
	CreatedAt time.Time `json:"created_at"`
}
