package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	headers := []string{" Address ", "Title 1", "Title 1 Length", "Status Code", "", "Crawl Depth"}
	rows := [][]string{
		{"https://example.com/", "Home", "4", "200", "ignored", "0"},
		{"https://example.com/blog", "Blog", "4", "200", "ignored", "1"},
		// Short row: missing trailing cells are padded with "".
		{"https://example.com/contact", "Contact"},
		// Unparseable numeric stays a string.
		{"https://example.com/x", "X", "n/a", "3.5", "", "2"},
	}

	snap := Normalize(headers, rows)

	assert.Equal(t, []string{"Address", "Title 1", "Title 1 Length", "Status Code", "Crawl Depth"}, snap.Columns,
		"names trimmed, empty column dropped")
	require.Len(t, snap.Rows, 4)

	assert.Equal(t, int64(4), snap.Rows[0]["Title 1 Length"])
	assert.Equal(t, int64(200), snap.Rows[0]["Status Code"])
	assert.Equal(t, "Home", snap.Rows[0]["Title 1"])

	// Padded short row.
	assert.Equal(t, "", snap.Rows[2]["Status Code"])
	assert.Equal(t, "", snap.Rows[2]["Crawl Depth"])

	// Coercion: fractional stays float, garbage stays string.
	assert.Equal(t, "n/a", snap.Rows[3]["Title 1 Length"])
	assert.Equal(t, 3.5, snap.Rows[3]["Status Code"])

	assert.False(t, snap.FetchedAt.IsZero())
}

func TestIsNumericColumn(t *testing.T) {
	t.Parallel()

	numeric := []string{"Title 1 Length", "Word Count", "Status Code", "Crawl Depth", "Inlinks", "Outlinks", "H1-1 Length", "Size Bytes", "Readability Score"}
	for _, name := range numeric {
		assert.True(t, isNumericColumn(name), name)
	}

	text := []string{"Address", "Title 1", "Meta Description 1", "Indexability", "Canonical Link Element 1"}
	for _, name := range text {
		assert.False(t, isNumericColumn(name), name)
	}
}

func TestExtractSpreadsheetID(t *testing.T) {
	t.Parallel()

	id, err := ExtractSpreadsheetID("https://docs.google.com/spreadsheets/d/1zzf4ax_H2WiTBVrJigGjF2Q3Yz-qy2qMCbAMKvl6VEE/export?format=csv")
	require.NoError(t, err)
	assert.Equal(t, "1zzf4ax_H2WiTBVrJigGjF2Q3Yz-qy2qMCbAMKvl6VEE", id)

	_, err = ExtractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}
