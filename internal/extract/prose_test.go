package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMineProseSplitsOnNumberedHeadings(t *testing.T) {
	text := "1. Hotel Okura Tokyo near Toranomon, from JPY 45,000\n2. Nui Hostel in Kuramae costs $35 per night\n3. just some words without anything useful"

	records := MineProse(text)
	require.Len(t, records, 2)

	assert.Equal(t, "Hotel Okura Tokyo", records[0].Name)
	assert.Equal(t, "hotel", records[0].Type)
	assert.Equal(t, 45000.0, records[0].Price)
	assert.Equal(t, "JPY", records[0].Currency)
	assert.Equal(t, "Toranomon", records[0].Location)

	assert.Equal(t, "Nui Hostel", records[1].Name)
	assert.Equal(t, "hostel", records[1].Type)
	assert.Equal(t, 35.0, records[1].Price)
	assert.Equal(t, "USD", records[1].Currency)
	assert.Equal(t, "Kuramae", records[1].Location)
}

func TestMineProseDropsWeakBlocks(t *testing.T) {
	assert.Empty(t, MineProse("nothing here\n\nor here either"))
}
