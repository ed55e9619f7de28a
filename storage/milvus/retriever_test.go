package milvus

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractscan/logic/ingestion/transform"
)

func TestBuildExpr(t *testing.T) {
	assert.Equal(t, "", BuildExpr(nil))
	assert.Equal(t, "doc_id == 'abc'", BuildExpr([]string{"abc"}))
	assert.Equal(t, "doc_id in ['a', 'b']", BuildExpr([]string{"a", "b"}))
	assert.Equal(t, `doc_id == 'it\'s'`, DocIDExpr("it's"))
}

func TestRowConverter(t *testing.T) {
	docs := []*schema.Document{
		{ID: "c1", Content: "deposit", MetaData: map[string]any{
			transform.MetaDocID: "d1", transform.MetaVenue: "The Leela",
		}},
		{ID: "c2", Content: "no meta"},
	}
	rows, err := rowConverter(context.Background(), docs, [][]float64{{0.5, 1}, {2, 3}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0].(map[string]interface{})
	assert.Equal(t, "d1", first[fieldDocID])
	assert.Equal(t, "The Leela", first[fieldVenue])
	assert.Equal(t, []float32{0.5, 1}, first[fieldVector])

	second := rows[1].(map[string]interface{})
	assert.Equal(t, "", second[fieldDocID])
	assert.Equal(t, []byte("{}"), second[fieldMetadata])

	_, err = rowConverter(context.Background(), docs, [][]float64{{1}})
	assert.Error(t, err)
}
