package score

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id string, score float64) *schema.Document {
	return (&schema.Document{ID: id, Content: id}).WithScore(score)
}

func TestHybridRerankerMergesSources(t *testing.T) {
	milvusDocs := []*schema.Document{doc("a", 0.9), doc("b", 0.5), doc("c", 0.1)}
	esDocs := []*schema.Document{doc("b", 12), doc("d", 3)}

	got := HybridReranker(milvusDocs, esDocs, &HybridRerankerConfig{MilvusWeight: 0.6, ESWeight: 0.4, TopK: 3})
	require.Len(t, got, 3)

	// b: 0.5 (归一化) * 0.6 + 1 * 0.4 = 0.7; a: 1 * 0.6
	assert.Equal(t, "b", got[0].ID)
	assert.InDelta(t, 0.7, got[0].FinalScore, 1e-9)
	assert.Equal(t, []string{SourceMilvus, SourceES}, got[0].Sources)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, 0.9, milvusDocs[0].Score(), "input scores untouched")
}

func TestHybridRerankerHandlesEmptyAndNil(t *testing.T) {
	assert.Empty(t, HybridReranker(nil, nil, nil))

	got := HybridReranker([]*schema.Document{nil, doc("x", 2)}, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0.6, got[0].FinalScore)
}

func TestRerankerPlacesBestAtEdges(t *testing.T) {
	r, err := NewReranker(context.Background())
	require.NoError(t, err)
	out, err := r.Transform(context.Background(), []*schema.Document{doc("1", 1), doc("4", 4), doc("3", 3), doc("2", 2)})
	require.NoError(t, err)

	ids := make([]string, 0, len(out))
	for _, d := range out {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"4", "2", "1", "3"}, ids)
}
