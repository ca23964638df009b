package model

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// Tags holds the categorical attributes of an image. All fields are
// optional, but a record with no tag set at all fails validation.
type Tags struct {
	Action      string `json:"action,omitempty"`
	Event       string `json:"event,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Player      string `json:"player,omitempty"`
	SubLocation string `json:"sub_location,omitempty"`
}

// Empty reports whether no tag dimension is set.
func (t Tags) Empty() bool {
	return t.Action == "" && t.Event == "" && t.Mood == "" && t.Player == "" && t.SubLocation == ""
}

// ImageRecord represents one tagged image in the index
type ImageRecord struct {
	ID          int64     `json:"id"`
	RID         uuid.UUID `json:"rid"`
	ImageID     string    `json:"image_id"`
	ImageURL    string    `json:"image_url"`
	Tags        Tags      `json:"tags"`
	Description string    `json:"description,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// taggedImageRow mirrors one row of the tagged-image CSV export.
// Tag columns carry reference-table ids, not names.
type taggedImageRow struct {
	ImageID       string `csv:"image_id"`
	ImageURL      string `csv:"image_url"`
	ActionID      string `csv:"action_id"`
	EventID       string `csv:"event_id"`
	MoodID        string `csv:"mood_id"`
	PlayerID      string `csv:"player_id"`
	SubLocationID string `csv:"sublocation_id"`
}

// NewImageRecordsFromCSV reads a tagged-image CSV and resolves tag ids
// against the reference tables. Rows referencing unknown ids keep the
// affected tag empty; record-level validation happens at ingestion.
func NewImageRecordsFromCSV(filePath string, refs *ReferenceTables) ([]*ImageRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []*taggedImageRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing tagged image csv: %w", err)
	}

	records := make([]*ImageRecord, 0, len(rows))
	for _, row := range rows {
		record := &ImageRecord{
			ImageID:  row.ImageID,
			ImageURL: row.ImageURL,
		}
		if refs != nil {
			record.Tags = Tags{
				Action:      refs.Name(VocabKindAction, row.ActionID),
				Event:       refs.Name(VocabKindEvent, row.EventID),
				Mood:        refs.Name(VocabKindMood, row.MoodID),
				Player:      refs.Name(VocabKindPlayer, row.PlayerID),
				SubLocation: refs.Name(VocabKindSubLocation, row.SubLocationID),
			}
		}
		records = append(records, record)
	}

	return records, nil
}
