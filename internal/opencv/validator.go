package opencv

import (
	"fmt"

	"gocv.io/x/gocv"
)

func validateMatForOperation(mat gocv.Mat, operation string) error {
	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	if !mat.IsContinuous() {
		return fmt.Errorf("Mat is not continuous for operation: %s", operation)
	}

	return nil
}

// depth strips the channel count from a Mat type.
func depth(matType gocv.MatType) gocv.MatType {
	return matType & 7
}
