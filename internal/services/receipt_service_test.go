package services

import (
	"bytes"
	"image/jpeg"
	"testing"

	"plate_depot_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "abcde", truncateRunes("abcdefgh", 5))
	assert.Equal(t, "", truncateRunes("", 5))
	// Gujarati text must be cut on rune boundaries, not bytes.
	assert.Equal(t, "પત", truncateRunes("પતરા", 2))
}

func TestGenerateReceiptFallsBackToBlankTemplate(t *testing.T) {
	data := ReceiptData{
		DocumentNumber: "KO007",
		Date:           "15/03/2025",
		ClientName:     "Kiran Builders",
		ClientID:       "KO",
		ClientSite:     "Ring Road Site",
		ClientMobile:   "+91 98765 43210",
		Quantities:     map[string]int{"2 X 3": 100, "9 X 3": 20},
		Notes:          map[string]string{"2 X 3": "handle with care"},
		Total:          120,
	}

	img, err := GenerateReceipt(data, "does/not/exist.jpg", "", defaultTestLayout(), config.DefaultPlateSizes)
	require.NoError(t, err)
	require.True(t, len(img) > 2)

	// JPEG SOI marker.
	assert.Equal(t, byte(0xFF), img[0])
	assert.Equal(t, byte(0xD8), img[1])

	decoded, err := jpeg.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	bounds := decoded.Bounds()
	assert.Equal(t, receiptWidth, bounds.Dx())
	assert.Equal(t, receiptHeight, bounds.Dy())
}

func TestGenerateReceiptSkipsZeroQuantityRows(t *testing.T) {
	data := ReceiptData{
		DocumentNumber: "KO008",
		Date:           "16/03/2025",
		Quantities:     map[string]int{"2 X 3": 0},
		Total:          0,
	}

	img, err := GenerateReceipt(data, "", "", defaultTestLayout(), config.DefaultPlateSizes)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}

func defaultTestLayout() config.ReceiptLayout {
	return config.Default().Receipt.Issue
}
