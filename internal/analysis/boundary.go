package analysis

import "cellcount/internal/models"

var neighbours4 = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Outlines marks every labelled pixel that has a 4-neighbour with a different label or
// that touches the image border. Background pixels are never outline pixels.
func Outlines(mask *models.LabelMask) *models.BoundaryMap {
	boundary := models.NewBoundaryMap(mask.Width, mask.Height)

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			label := mask.At(x, y)
			if label == 0 {
				continue
			}

			for _, d := range neighbours4 {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= mask.Width || ny >= mask.Height || mask.At(nx, ny) != label {
					boundary.Edge[y*mask.Width+x] = true
					break
				}
			}
		}
	}

	return boundary
}
