package models

import (
	"fmt"
	"strings"
)

// Variant selects a pretrained configuration of the segmentation model.
type Variant string

const (
	VariantCyto   Variant = "cyto"
	VariantCyto2  Variant = "cyto2"
	VariantCyto3  Variant = "cyto3"
	VariantNuclei Variant = "nuclei"

	DefaultVariant = VariantCyto
)

// Variants lists every supported variant in display order.
var Variants = []Variant{VariantCyto, VariantCyto2, VariantCyto3, VariantNuclei}

func (v Variant) String() string {
	return string(v)
}

// Description is the label shown next to the variant in selectors.
func (v Variant) Description() string {
	switch v {
	case VariantCyto:
		return "whole cell"
	case VariantCyto2:
		return "whole cell (cyto2)"
	case VariantCyto3:
		return "whole cell (cyto3)"
	case VariantNuclei:
		return "nuclei only"
	default:
		return "unknown"
	}
}

func (v Variant) Valid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

// ParseVariant resolves a variant name. Unknown or empty names fall back to DefaultVariant;
// the fallback is reported through the returned note and is never an error.
func ParseVariant(name string) (Variant, string) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return DefaultVariant, ""
	}

	v := Variant(trimmed)
	if v.Valid() {
		return v, ""
	}

	return DefaultVariant, fmt.Sprintf("model variant %q is not supported; used %q instead", name, DefaultVariant)
}
