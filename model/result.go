package model

// Filters is a conjunction of tag equality predicates applied before
// similarity scoring. Empty fields are not constrained.
type Filters struct {
	Action      string `json:"action,omitempty"`
	Event       string `json:"event,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Player      string `json:"player,omitempty"`
	SubLocation string `json:"sub_location,omitempty"`
}

// Empty reports whether no predicate is set.
func (f Filters) Empty() bool {
	return f.Action == "" && f.Event == "" && f.Mood == "" && f.Player == "" && f.SubLocation == ""
}

// Match is one retrieved image with its similarity score.
// Scores are comparable only within a single index and model pair.
type Match struct {
	ImageID     string  `json:"image_id"`
	ImageURL    string  `json:"image_url"`
	Tags        Tags    `json:"tags"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
}

// RetrievalResult holds the ranked matches of one retrieval pass.
// Matches are ordered by descending similarity, ties broken by
// ascending image id. Relaxed marks results obtained after dropping
// filters that yielded no match.
type RetrievalResult struct {
	Matches []*Match `json:"matches"`
	Filters Filters  `json:"filters"`
	Relaxed bool     `json:"relaxed,omitempty"`
}

// Empty reports whether the retrieval produced no matches.
func (r *RetrievalResult) Empty() bool {
	return r == nil || len(r.Matches) == 0
}

// Grounding converts the matches into grounding references for a chat turn
func (r *RetrievalResult) Grounding() GroundingRefs {
	if r == nil {
		return GroundingRefs{}
	}
	refs := make(GroundingRefs, 0, len(r.Matches))
	for _, match := range r.Matches {
		refs = append(refs, GroundingRef{ImageID: match.ImageID, Score: match.Score})
	}
	return refs
}
