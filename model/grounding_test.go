package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroundingRefs(t *testing.T) {
	t.Run("Value and Scan round trip", func(t *testing.T) {
		refs := GroundingRefs{
			{ImageID: "img-001", Score: 0.91},
			{ImageID: "img-002", Score: 0.52},
		}

		value, err := refs.Value()
		require.NoError(t, err)

		var scanned GroundingRefs
		err = scanned.Scan(value)
		require.NoError(t, err)
		assert.Equal(t, refs, scanned)
	})

	t.Run("Scan nil yields empty refs", func(t *testing.T) {
		var refs GroundingRefs
		err := refs.Scan(nil)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("Nil refs marshal to empty array", func(t *testing.T) {
		var refs GroundingRefs
		b, err := refs.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(b))
	})

	t.Run("Scan rejects non-byte values", func(t *testing.T) {
		var refs GroundingRefs
		err := refs.Scan(42)
		assert.Error(t, err)
	})
}

func TestRetrievalResultGrounding(t *testing.T) {
	result := &RetrievalResult{
		Matches: []*Match{
			{ImageID: "img-001", Score: 0.8},
			{ImageID: "img-002", Score: 0.6},
		},
	}

	refs := result.Grounding()
	require.Len(t, refs, 2)
	assert.Equal(t, "img-001", refs[0].ImageID)
	assert.Equal(t, 0.8, refs[0].Score)

	var empty *RetrievalResult
	assert.Empty(t, empty.Grounding())
	assert.True(t, empty.Empty())
}
