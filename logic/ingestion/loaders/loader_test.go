package loaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesDetectsKind(t *testing.T) {
	pdf, err := FromBytes("a.pdf", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"))
	require.NoError(t, err)
	assert.Equal(t, KindPDF, pdf.Kind)

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	img, err := FromBytes("scan.png", png)
	require.NoError(t, err)
	assert.Equal(t, KindImage, img.Kind)
	assert.Equal(t, "image/png", img.MIME)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg==", img.DataURL())

	txt, err := FromBytes("contract.txt", []byte("Venue rental: Rs. 5,00,000"))
	require.NoError(t, err)
	assert.Equal(t, KindText, txt.Kind)
}

func TestFromBytesRejectsUnknown(t *testing.T) {
	_, err := FromBytes("a.zip", []byte{'P', 'K', 0x03, 0x04, 0x14, 0, 0, 0})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

func TestFromBytesDecodesUTF16Text(t *testing.T) {
	src, err := FromBytes("contract.txt", utf16LE("Venue rental: Rs. 5,00,000"))
	require.NoError(t, err)
	assert.Equal(t, KindText, src.Kind)
	assert.Equal(t, "Venue rental: Rs. 5,00,000", string(src.Data))
}

func TestFromBytesTextWithNUL(t *testing.T) {
	src, err := FromBytes("notes.txt", []byte("Venue: The Leela\x00\x00 Palace\x00"))
	require.NoError(t, err)
	assert.Equal(t, KindText, src.Kind)
}
