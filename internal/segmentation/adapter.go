package segmentation

import (
	"context"
	"errors"
	"fmt"

	"cellcount/internal/models"
)

// Adapter applies the variant fallback rule in front of a Segmenter and classifies every
// failure as a ModelInvocationError.
type Adapter struct {
	segmenter Segmenter
}

func NewAdapter(segmenter Segmenter) *Adapter {
	return &Adapter{segmenter: segmenter}
}

// Result is the mask plus the variant actually used and an optional advisory note.
type Result struct {
	Mask    *models.LabelMask
	Variant models.Variant
	Note    string
}

func (a *Adapter) Segment(ctx context.Context, imagePath string, img *models.SourceImage, diameter float64, variantName string) (*Result, error) {
	variant, note := models.ParseVariant(variantName)

	mask, err := a.segmenter.Segment(ctx, Request{
		ImagePath: imagePath,
		Image:     img,
		Diameter:  diameter,
		Variant:   variant,
	})
	if err != nil {
		var invocationErr *models.ModelInvocationError
		if errors.As(err, &invocationErr) {
			return nil, err
		}
		return nil, &models.ModelInvocationError{Variant: variant, Err: err}
	}

	if mask == nil {
		return nil, &models.ModelInvocationError{Variant: variant, Err: errors.New("model returned no mask")}
	}
	if img != nil && !mask.SameExtent(img.Width, img.Height) {
		return nil, &models.ModelInvocationError{
			Variant: variant,
			Err: fmt.Errorf("model returned a %dx%d mask for a %dx%d image",
				mask.Width, mask.Height, img.Width, img.Height),
		}
	}

	return &Result{Mask: mask, Variant: variant, Note: note}, nil
}
