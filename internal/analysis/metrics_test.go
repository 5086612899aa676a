package analysis

import (
	"testing"

	"cellcount/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMask(t *testing.T, rows [][]uint32) *models.LabelMask {
	t.Helper()
	mask, err := models.LabelMaskFromRows(rows)
	require.NoError(t, err)
	return mask
}

func TestExtractMetricsTwoCells(t *testing.T) {
	// label 1: 4 pixels, label 2: 6 pixels
	mask := mustMask(t, [][]uint32{
		{1, 1, 0, 2, 2},
		{1, 1, 0, 2, 2},
		{0, 0, 0, 2, 2},
	})

	m := ExtractMetrics(mask)
	assert.Equal(t, 2, m.CellCount)
	assert.Equal(t, 5.0, m.MeanAreaPx)
	assert.Equal(t, map[uint32]int{1: 4, 2: 6}, m.Areas)
}

func TestExtractMetricsSparseLabelsAreNotCountedByMaxID(t *testing.T) {
	mask := mustMask(t, [][]uint32{
		{0, 900, 0},
		{17, 0, 65000},
	})

	m := ExtractMetrics(mask)
	assert.Equal(t, 3, m.CellCount)
	assert.NotEqual(t, int(mask.MaxLabel()), m.CellCount)
	assert.Equal(t, 1.0, m.MeanAreaPx)
}

func TestExtractMetricsNonContiguousRegionCountsOnce(t *testing.T) {
	// label 5 appears in two disjoint places; it is still one label
	mask := mustMask(t, [][]uint32{
		{5, 0, 5},
		{0, 3, 0},
	})

	m := ExtractMetrics(mask)
	assert.Equal(t, 2, m.CellCount)
	assert.Equal(t, 1.5, m.MeanAreaPx)
}

func TestExtractMetricsEmptyMask(t *testing.T) {
	mask, err := models.NewLabelMask(4, 4)
	require.NoError(t, err)

	m := ExtractMetrics(mask)
	assert.Zero(t, m.CellCount)
	assert.Zero(t, m.MeanAreaPx)
	assert.Empty(t, m.Areas)
}

func TestExtractMetricsWithoutBackground(t *testing.T) {
	mask := mustMask(t, [][]uint32{{1, 1}, {2, 2}})

	m := ExtractMetrics(mask)
	assert.Equal(t, 2, m.CellCount)
	assert.Equal(t, 2.0, m.MeanAreaPx)
}

func TestExtractMetricsIsIdempotent(t *testing.T) {
	mask := mustMask(t, [][]uint32{{1, 0, 2}, {1, 2, 2}})
	assert.Equal(t, ExtractMetrics(mask), ExtractMetrics(mask))
}

func TestPhysicalArea(t *testing.T) {
	area, ok := PhysicalArea(8.0, 0.5)
	require.True(t, ok)
	assert.Equal(t, 2.0, area)

	for _, scale := range []float64{0, -1} {
		_, ok := PhysicalArea(8.0, scale)
		assert.False(t, ok)
	}
}

func TestParsePixelScale(t *testing.T) {
	scale, ok := ParsePixelScale(" 0.5 ")
	require.True(t, ok)
	assert.Equal(t, 0.5, scale)

	for _, text := range []string{"", "abc", "0", "-0.3", "NaN", "Inf", "1e400"} {
		_, ok := ParsePixelScale(text)
		assert.False(t, ok, text)
	}
}
