// Package analysis derives the cell metrics, outline map and preview overlay from a label
// mask. Everything here is pure and deterministic.
package analysis

import (
	"math"
	"strconv"
	"strings"

	"cellcount/internal/models"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarises a label mask.
type Metrics struct {
	CellCount  int
	MeanAreaPx float64
	// Areas maps each non-background label to its pixel count.
	Areas map[uint32]int
}

// ExtractMetrics counts distinct non-zero labels and averages their pixel areas. Label ids
// may be sparse or non-contiguous, so the count never derives from the largest id.
func ExtractMetrics(mask *models.LabelMask) Metrics {
	histogram := make(map[uint32]int)
	for _, label := range mask.Labels {
		histogram[label]++
	}
	delete(histogram, 0)

	metrics := Metrics{
		CellCount: len(histogram),
		Areas:     histogram,
	}
	if metrics.CellCount == 0 {
		return metrics
	}

	areas := make([]float64, 0, len(histogram))
	for _, count := range histogram {
		areas = append(areas, float64(count))
	}
	metrics.MeanAreaPx = stat.Mean(areas, nil)

	return metrics
}

// ParsePixelScale reads the optional pixel size field. Anything that is not a finite
// positive number is ignored and reported as absent.
func ParsePixelScale(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}

	scale, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || !validScale(scale) {
		return 0, false
	}
	return scale, true
}

// PhysicalArea converts a pixel area into physical units: area * scale². It reports false
// for an invalid scale instead of failing.
func PhysicalArea(meanAreaPx, scale float64) (float64, bool) {
	if !validScale(scale) {
		return 0, false
	}
	return meanAreaPx * scale * scale, true
}

func validScale(scale float64) bool {
	return scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale)
}
