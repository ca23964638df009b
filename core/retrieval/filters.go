package retrieval

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wicketmedia/stumpsearch/database"
	"github.com/wicketmedia/stumpsearch/model"
)

// FilterExtractor matches vocabulary terms in user queries to derive
// tag filters. Extraction is best effort; a query mentioning no known
// term simply yields empty filters. Safe for concurrent use; the
// vocabulary can be reloaded while queries extract.
type FilterExtractor struct {
	mu sync.RWMutex
	// terms sorted longest first so "david smith" wins over "smith"
	terms []*model.VocabTerm
}

// NewFilterExtractor creates an extractor from the stored vocabulary
func NewFilterExtractor(vocab *database.VocabularyDBHandler) (*FilterExtractor, error) {
	terms, err := vocab.SelectAllTerms()
	if err != nil {
		return nil, err
	}
	return NewFilterExtractorFromTerms(terms), nil
}

// NewFilterExtractorFromTerms creates an extractor from an in-memory
// term list
func NewFilterExtractorFromTerms(terms []*model.VocabTerm) *FilterExtractor {
	sorted := make([]*model.VocabTerm, len(terms))
	copy(sorted, terms)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].Term) != len(sorted[j].Term) {
			return len(sorted[i].Term) > len(sorted[j].Term)
		}
		return sorted[i].Term < sorted[j].Term
	})
	return &FilterExtractor{terms: sorted}
}

// Reload replaces the term list from the stored vocabulary
func (f *FilterExtractor) Reload(vocab *database.VocabularyDBHandler) error {
	terms, err := vocab.SelectAllTerms()
	if err != nil {
		return err
	}

	sorted := NewFilterExtractorFromTerms(terms).terms
	f.mu.Lock()
	f.terms = sorted
	f.mu.Unlock()
	return nil
}

// Extract derives tag filters from the raw and normalized forms of a
// query. The first (longest) matching term per tag kind wins.
func (f *FilterExtractor) Extract(raw string, normalized string) model.Filters {
	haystacks := []string{matchable(raw), matchable(normalized)}

	f.mu.RLock()
	terms := f.terms
	f.mu.RUnlock()

	filters := model.Filters{}
	for _, term := range terms {
		needle := " " + term.Term + " "
		found := false
		for _, haystack := range haystacks {
			if strings.Contains(haystack, needle) {
				found = true
				break
			}
		}
		if !found {
			continue
		}

		switch term.Kind {
		case model.VocabKindAction:
			if filters.Action == "" {
				filters.Action = term.Canonical
			}
		case model.VocabKindEvent:
			if filters.Event == "" {
				filters.Event = term.Canonical
			}
		case model.VocabKindMood:
			if filters.Mood == "" {
				filters.Mood = term.Canonical
			}
		case model.VocabKindPlayer:
			if filters.Player == "" {
				filters.Player = term.Canonical
			}
		case model.VocabKindSubLocation:
			if filters.SubLocation == "" {
				filters.SubLocation = term.Canonical
			}
		}
	}

	return filters
}

// matchable lowercases text, strips punctuation, collapses whitespace
// and pads the result so terms match on word boundaries
func matchable(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return " " + strings.Join(strings.Fields(mapped), " ") + " "
}
