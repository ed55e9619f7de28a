package processors

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	in := "ReportLab Generated PDF document - page 1.\x00 Venue:\n\n  The  Leela\x07 \xff see http://www.reportlab.com"
	assert.Equal(t, "Venue: The Leela see", CleanText(in))
}

func TestProcessorDropsEmptyChunks(t *testing.T) {
	docs := []*schema.Document{
		{ID: "1", Content: "  Cleaning fee:\t Rs. 5,000 "},
		{ID: "2", Content: " \x00 \n"},
	}
	out, err := Processor(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Cleaning fee: Rs. 5,000", out[0].Content)
}

func TestCleanContentKeepsLines(t *testing.T) {
	in := "\x00Venue: The Leela Palace\x00\nCleaning fee: Rs. 20,000\xff\x01\n"
	assert.Equal(t, "Venue: The Leela Palace\nCleaning fee: Rs. 20,000", CleanContent(in))
	assert.Empty(t, CleanContent("\x00\x00 \x01\n"))
}
