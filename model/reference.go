package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
)

// referenceRow mirrors one row of a reference CSV (id to name mapping).
// The players table additionally carries a team column.
type referenceRow struct {
	ID   string `csv:"id"`
	Name string `csv:"name"`
	Team string `csv:"team,omitempty"`
}

// Reference CSV file names per vocabulary kind.
var referenceFiles = map[string]string{
	VocabKindAction:      "action.csv",
	VocabKindEvent:       "event.csv",
	VocabKindMood:        "mood.csv",
	VocabKindPlayer:      "players.csv",
	VocabKindSubLocation: "sublocation.csv",
}

// ReferenceTables maps tag ids to display names per vocabulary kind
type ReferenceTables struct {
	names map[string]map[string]string
}

// NewReferenceTables creates empty reference tables
func NewReferenceTables() *ReferenceTables {
	names := make(map[string]map[string]string, len(VocabKinds))
	for _, kind := range VocabKinds {
		names[kind] = make(map[string]string)
	}
	return &ReferenceTables{names: names}
}

// LoadReferenceTables reads all reference CSVs from a directory.
// Missing files are an error; every kind must be present.
func LoadReferenceTables(dir string) (*ReferenceTables, error) {
	refs := NewReferenceTables()
	for kind, filename := range referenceFiles {
		file, err := os.Open(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("error opening reference table %s: %w", filename, err)
		}

		var rows []*referenceRow
		err = gocsv.UnmarshalFile(file, &rows)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("error parsing reference table %s: %w", filename, err)
		}

		for _, row := range rows {
			refs.Add(kind, row.ID, row.Name)
		}
	}
	return refs, nil
}

// Add registers an id to name mapping for a kind
func (r *ReferenceTables) Add(kind string, id string, name string) {
	if _, ok := r.names[kind]; !ok {
		r.names[kind] = make(map[string]string)
	}
	r.names[kind][id] = strings.TrimSpace(name)
}

// Name resolves an id to its display name, empty string if unknown
func (r *ReferenceTables) Name(kind string, id string) string {
	if id == "" {
		return ""
	}
	return r.names[kind][id]
}

// Names returns all display names of a kind
func (r *ReferenceTables) Names(kind string) []string {
	names := make([]string, 0, len(r.names[kind]))
	for _, name := range r.names[kind] {
		names = append(names, name)
	}
	return names
}

// VocabTerms expands the reference tables into vocabulary terms for
// filter extraction. Player names additionally produce their name
// variations so partial mentions in queries still match.
func (r *ReferenceTables) VocabTerms() []*VocabTerm {
	var terms []*VocabTerm
	for _, kind := range VocabKinds {
		for _, name := range r.Names(kind) {
			if name == "" {
				continue
			}
			surfaces := []string{name}
			if kind == VocabKindPlayer {
				surfaces = PlayerNameVariations(name)
			}
			for _, surface := range surfaces {
				terms = append(terms, &VocabTerm{
					Kind:      kind,
					Term:      strings.ToLower(surface),
					Canonical: name,
				})
			}
		}
	}
	return terms
}

// PlayerNameVariations generates the surface forms under which a player
// can be mentioned in a query: the full name plus each name part longer
// than two characters, so "Smith" matches "David Smith".
func PlayerNameVariations(fullName string) []string {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil
	}

	variations := []string{fullName}
	seen := map[string]bool{strings.ToLower(fullName): true}
	for _, part := range strings.Fields(fullName) {
		if len(part) <= 2 {
			continue
		}
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		variations = append(variations, part)
	}
	return variations
}
