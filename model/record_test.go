package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err, "failed to write test file %s", name)
	return path
}

func writeTestReferenceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "action.csv", "id,name\n1,batting\n2,bowling\n")
	writeTestFile(t, dir, "event.csv", "id,name\n1,practice session\n2,final match\n")
	writeTestFile(t, dir, "mood.csv", "id,name\n1,celebration\n")
	writeTestFile(t, dir, "players.csv", "id,name,team\n1,David Smith,Joburg\n2,Ravi Patel,Joburg\n")
	writeTestFile(t, dir, "sublocation.csv", "id,name\n1,main pitch\n")
	return dir
}

func TestLoadReferenceTables(t *testing.T) {
	t.Run("Load all reference tables", func(t *testing.T) {
		dir := writeTestReferenceDir(t)

		refs, err := LoadReferenceTables(dir)
		require.NoError(t, err)

		assert.Equal(t, "batting", refs.Name(VocabKindAction, "1"))
		assert.Equal(t, "bowling", refs.Name(VocabKindAction, "2"))
		assert.Equal(t, "David Smith", refs.Name(VocabKindPlayer, "1"))
		assert.Equal(t, "main pitch", refs.Name(VocabKindSubLocation, "1"))
	})

	t.Run("Unknown id resolves to empty string", func(t *testing.T) {
		dir := writeTestReferenceDir(t)

		refs, err := LoadReferenceTables(dir)
		require.NoError(t, err)

		assert.Equal(t, "", refs.Name(VocabKindAction, "99"))
		assert.Equal(t, "", refs.Name(VocabKindAction, ""))
	})

	t.Run("Missing reference file fails", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, dir, "action.csv", "id,name\n1,batting\n")

		_, err := LoadReferenceTables(dir)
		assert.Error(t, err)
	})
}

func TestNewImageRecordsFromCSV(t *testing.T) {
	t.Run("Load tagged images and resolve ids", func(t *testing.T) {
		dir := writeTestReferenceDir(t)
		refs, err := LoadReferenceTables(dir)
		require.NoError(t, err)

		path := writeTestFile(t, dir, "tagged.csv",
			"image_id,image_url,action_id,event_id,mood_id,player_id,sublocation_id\n"+
				"img-001,https://example.com/1.jpg,1,,,1,1\n"+
				"img-002,https://example.com/2.jpg,2,1,,2,\n")

		records, err := NewImageRecordsFromCSV(path, refs)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "img-001", records[0].ImageID)
		assert.Equal(t, "batting", records[0].Tags.Action)
		assert.Equal(t, "David Smith", records[0].Tags.Player)
		assert.Equal(t, "main pitch", records[0].Tags.SubLocation)
		assert.Equal(t, "", records[0].Tags.Event)

		assert.Equal(t, "bowling", records[1].Tags.Action)
		assert.Equal(t, "practice session", records[1].Tags.Event)
		assert.Equal(t, "Ravi Patel", records[1].Tags.Player)
	})

	t.Run("Unknown tag id leaves tag empty", func(t *testing.T) {
		dir := writeTestReferenceDir(t)
		refs, err := LoadReferenceTables(dir)
		require.NoError(t, err)

		path := writeTestFile(t, dir, "tagged.csv",
			"image_id,image_url,action_id,event_id,mood_id,player_id,sublocation_id\n"+
				"img-003,https://example.com/3.jpg,42,,,,\n")

		records, err := NewImageRecordsFromCSV(path, refs)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Tags.Empty())
	})

	t.Run("Missing file fails", func(t *testing.T) {
		_, err := NewImageRecordsFromCSV(filepath.Join(t.TempDir(), "nope.csv"), nil)
		assert.Error(t, err)
	})
}

func TestPlayerNameVariations(t *testing.T) {
	t.Run("Full name produces name parts", func(t *testing.T) {
		variations := PlayerNameVariations("David Smith")
		assert.Equal(t, []string{"David Smith", "David", "Smith"}, variations)
	})

	t.Run("Short particles are skipped", func(t *testing.T) {
		variations := PlayerNameVariations("AB de Villiers")
		assert.Contains(t, variations, "Villiers")
		assert.NotContains(t, variations, "AB")
		assert.NotContains(t, variations, "de")
	})

	t.Run("Empty name produces nothing", func(t *testing.T) {
		assert.Nil(t, PlayerNameVariations("  "))
	})
}

func TestVocabTerms(t *testing.T) {
	dir := writeTestReferenceDir(t)
	refs, err := LoadReferenceTables(dir)
	require.NoError(t, err)

	terms := refs.VocabTerms()
	require.NotEmpty(t, terms)

	byTerm := map[string]*VocabTerm{}
	for _, term := range terms {
		byTerm[term.Kind+"/"+term.Term] = term
	}

	t.Run("Plain kinds map name to itself", func(t *testing.T) {
		term, ok := byTerm[VocabKindAction+"/bowling"]
		require.True(t, ok)
		assert.Equal(t, "bowling", term.Canonical)
	})

	t.Run("Player variations share one canonical name", func(t *testing.T) {
		full, ok := byTerm[VocabKindPlayer+"/david smith"]
		require.True(t, ok)
		last, ok := byTerm[VocabKindPlayer+"/smith"]
		require.True(t, ok)

		assert.Equal(t, "David Smith", full.Canonical)
		assert.Equal(t, "David Smith", last.Canonical)
	})
}

func TestTagsEmpty(t *testing.T) {
	assert.True(t, Tags{}.Empty())
	assert.False(t, Tags{Player: "David Smith"}.Empty())
	assert.False(t, Tags{SubLocation: "main pitch"}.Empty())
}

func TestDefaultQueryConfig(t *testing.T) {
	config := DefaultQueryConfig()
	assert.Equal(t, 5, config.TopK)
	assert.Equal(t, 0.4, config.SimilarityThreshold)
	assert.Equal(t, 6, config.HistoryTurns)
	assert.Equal(t, 512, config.MaxAnswerTokens)
}
