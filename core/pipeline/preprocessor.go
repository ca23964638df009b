package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// Cricket-specific phrase canonicalization applied before
// lemmatization. Values never appear as keys, so a second pass over
// already normalized text leaves it unchanged.
var cricketSynonyms = map[string]string{
	"batter":           "batsman",
	"wicketkeeper":     "wicket keeper",
	"presser":          "press meet",
	"press conference": "press meet",
	"hundred":          "century",
	"ton":              "century",
	"fifty":            "half century",
	"training":         "practice",
	"warmup":           "warm up",
}

// Common misspellings in user queries, fixed per word before any
// other processing.
var cricketMisspellings = map[string]string{
	"practise":     "practice",
	"crickter":     "cricketer",
	"celeberation": "celebration",
	"batsmans":     "batsman",
	"stumpd":       "stumped",
}

var queryStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true,
	"and": true, "or": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "me": true, "i": true, "you": true,
	"show": true, "find": true, "get": true, "give": true,
	"image": true, "images": true, "photo": true, "photos": true,
	"picture": true, "pictures": true, "any": true, "some": true,
	"please": true, "want": true, "looking": true, "see": true,
}

// Preprocessor normalizes user queries: lowercasing, misspelling
// fixes, cricket synonym canonicalization, tokenization with POS
// tagging and noun/verb lemmatization. Normalization is idempotent.
type Preprocessor struct {
	lemmatizer *golem.Lemmatizer

	// synonym keys sorted longest first so multi-word phrases win
	// over their substrings
	synonymKeys []string
}

// NewPreprocessor creates a query preprocessor with the English
// lemmatizer dictionary
func NewPreprocessor() (*Preprocessor, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to create lemmatizer: %w", err)
	}

	keys := make([]string, 0, len(cricketSynonyms))
	for key := range cricketSynonyms {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &Preprocessor{
		lemmatizer:  lemmatizer,
		synonymKeys: keys,
	}, nil
}

// Normalize converts a raw query into its normalized form
func (p *Preprocessor) Normalize(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}

	text = p.fixMisspellings(text)
	text = p.canonicalizeSynonyms(text)

	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		// Tokenization failure falls back to whitespace splitting
		return p.normalizeFields(strings.Fields(text))
	}

	var tokens []string
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if !hasLetterOrDigit(word) || queryStopwords[word] {
			continue
		}
		if strings.HasPrefix(tok.Tag, "NN") || strings.HasPrefix(tok.Tag, "VB") {
			word = strings.ToLower(p.lemmatizer.Lemma(word))
		}
		if word == "" || queryStopwords[word] {
			continue
		}
		tokens = append(tokens, word)
	}

	return strings.Join(tokens, " ")
}

// normalizeFields is the tokenizer-free fallback path
func (p *Preprocessor) normalizeFields(fields []string) string {
	var tokens []string
	for _, word := range fields {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" || queryStopwords[word] {
			continue
		}
		tokens = append(tokens, strings.ToLower(p.lemmatizer.Lemma(word)))
	}
	return strings.Join(tokens, " ")
}

func (p *Preprocessor) fixMisspellings(text string) string {
	fields := strings.Fields(text)
	for i, word := range fields {
		if fixed, ok := cricketMisspellings[word]; ok {
			fields[i] = fixed
		}
	}
	return strings.Join(fields, " ")
}

func (p *Preprocessor) canonicalizeSynonyms(text string) string {
	padded := " " + text + " "
	for _, key := range p.synonymKeys {
		padded = strings.ReplaceAll(padded, " "+key+" ", " "+cricketSynonyms[key]+" ")
	}
	return strings.TrimSpace(padded)
}

func hasLetterOrDigit(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
