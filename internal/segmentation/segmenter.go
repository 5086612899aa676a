// Package segmentation is the boundary to the external cell-segmentation model. The model is
// a black box: callers hand it an image and a few parameters and get a label mask back.
package segmentation

import (
	"context"

	"cellcount/internal/models"
)

type Request struct {
	ImagePath string
	// Image is the already decoded source, used to check the returned mask's extent.
	Image    *models.SourceImage
	Diameter float64
	Variant  models.Variant
}

type Segmenter interface {
	Segment(ctx context.Context, req Request) (*models.LabelMask, error)
}

// SegmenterFunc adapts a function to Segmenter.
type SegmenterFunc func(ctx context.Context, req Request) (*models.LabelMask, error)

func (f SegmenterFunc) Segment(ctx context.Context, req Request) (*models.LabelMask, error) {
	return f(ctx, req)
}
