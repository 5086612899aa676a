package models

import (
	"fmt"
	"sort"
)

// LabelMask holds one object label per pixel, row-major. Zero is background; every other
// distinct value is one detected object. Label ids are not guaranteed to be contiguous.
type LabelMask struct {
	Width  int
	Height int
	Labels []uint32
}

func NewLabelMask(width, height int) (*LabelMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask dimensions: %dx%d", width, height)
	}
	return &LabelMask{
		Width:  width,
		Height: height,
		Labels: make([]uint32, width*height),
	}, nil
}

// LabelMaskFromRows builds a mask from a rectangular grid, mostly for tests and fixtures.
func LabelMaskFromRows(rows [][]uint32) (*LabelMask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty label grid")
	}
	mask, err := NewLabelMask(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != mask.Width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), mask.Width)
		}
		copy(mask.Labels[y*mask.Width:], row)
	}
	return mask, nil
}

func (m *LabelMask) At(x, y int) uint32 {
	return m.Labels[y*m.Width+x]
}

func (m *LabelMask) Set(x, y int, label uint32) {
	m.Labels[y*m.Width+x] = label
}

// MaxLabel returns the largest label id present.
func (m *LabelMask) MaxLabel() uint32 {
	var max uint32
	for _, v := range m.Labels {
		if v > max {
			max = v
		}
	}
	return max
}

// Distinct returns the sorted set of non-background labels.
func (m *LabelMask) Distinct() []uint32 {
	seen := make(map[uint32]struct{})
	for _, v := range m.Labels {
		if v != 0 {
			seen[v] = struct{}{}
		}
	}
	labels := make([]uint32, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// SameExtent reports whether the mask covers exactly width x height pixels.
func (m *LabelMask) SameExtent(width, height int) bool {
	return m.Width == width && m.Height == height
}

// BoundaryMap marks the outline pixels of labelled objects. Same extent as its mask.
type BoundaryMap struct {
	Width  int
	Height int
	Edge   []bool
}

func NewBoundaryMap(width, height int) *BoundaryMap {
	return &BoundaryMap{
		Width:  width,
		Height: height,
		Edge:   make([]bool, width*height),
	}
}

func (b *BoundaryMap) At(x, y int) bool {
	return b.Edge[y*b.Width+x]
}

// Count returns the number of outline pixels.
func (b *BoundaryMap) Count() int {
	n := 0
	for _, e := range b.Edge {
		if e {
			n++
		}
	}
	return n
}
