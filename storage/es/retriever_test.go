package es

import (
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractscan/logic/ingestion/transform"
)

func TestBuildQueryWithoutFilter(t *testing.T) {
	q := BuildQuery("cancellation refund", nil, 5)

	raw, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {"bool": {"must": [{"match": {"content": {"query": "cancellation refund"}}}]}},
		"size": 5
	}`, string(raw))
}

func TestBuildQueryFilters(t *testing.T) {
	q := BuildQuery("deposit", &Filter{DocIDs: []string{"a", "b"}, ContractType: "venue", Venue: "The Leela"}, 3)

	raw, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {"bool": {
			"must": [{"match": {"content": {"query": "deposit"}}}],
			"filter": [
				{"terms": {"doc_id": ["a", "b"]}},
				{"term": {"contract_type": "venue"}},
				{"term": {"venue.keyword": "The Leela"}}
			]
		}},
		"size": 3
	}`, string(raw))
}

func TestBuildKeywordQuery(t *testing.T) {
	q := BuildKeywordQuery("palace", 0)
	assert.Equal(t, 5, q["size"])
	assert.Equal(t, []string{"doc_id"}, q["_source"])
}

func TestNewChunkSource(t *testing.T) {
	chunk := &schema.Document{
		ID:      "c1",
		Content: "Deposit is non-refundable.",
		MetaData: map[string]any{
			transform.MetaFileName: "leela.pdf",
			transform.MetaVenue:    "The Leela",
		},
	}
	src := newChunkSource("d1", "venue", chunk)
	assert.Equal(t, chunkSource{
		DocID: "d1", ChunkID: "c1", Content: "Deposit is non-refundable.",
		FileName: "leela.pdf", Venue: "The Leela", ContractType: "venue",
	}, src)
	assert.Empty(t, metaString(nil, transform.MetaVenue))
}
