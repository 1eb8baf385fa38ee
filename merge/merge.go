// Package merge fills the blank cells of merged regions with the region's
// label.
//
// Extraction tools usually report a merged cell's text only in its top-left
// position and leave the rest of the range empty. Scoring counts blank
// cells, so regions are filled before a table is scored.
package merge

import (
	"fmt"

	"github.com/tsawler/tabsift/model"
)

// Warning codes.
const (
	CodeSkipped = "merge-skipped"
	CodeOverlap = "merge-overlap"
)

// Fill returns a copy of raw in which every blank cell covered by a valid
// region holds the region's text. raw itself is not modified.
//
// Regions are applied in order; a cell that already has text, from the
// extraction or from an earlier region, is left alone. A region with
// inverted or out-of-range bounds is skipped with a warning and does not
// stop the remaining regions. When regions overlap, the first region to
// reach a still-blank cell wins and each overlapping pair is reported as a
// warning.
func Fill(raw *model.RawTable, regions []model.MergeRegion) (*model.RawTable, []model.Warning) {
	out := raw.Clone()
	var warnings []model.Warning

	rows, cols := out.RowCount(), out.ColCount()
	for i, region := range regions {
		if err := check(region, rows, cols); err != nil {
			warnings = append(warnings, model.Warning{
				Code:    CodeSkipped,
				Message: fmt.Sprintf("region %d %s skipped: %v", i, region, err),
			})
			continue
		}
		for r := region.Top; r <= region.Bottom; r++ {
			for c := region.Left; c <= region.Right; c++ {
				if model.IsBlank(out.Rows[r][c]) {
					out.Rows[r][c] = region.Text
				}
			}
		}
	}

	for _, pair := range Overlapping(regions) {
		warnings = append(warnings, model.Warning{
			Code:    CodeOverlap,
			Message: fmt.Sprintf("regions %d and %d overlap", pair[0], pair[1]),
		})
	}

	return out, warnings
}

// Overlapping returns the index pairs of regions that share a cell.
// Regions with inverted bounds never overlap.
func Overlapping(regions []model.MergeRegion) [][2]int {
	var pairs [][2]int
	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			if overlap(regions[i], regions[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

func overlap(a, b model.MergeRegion) bool {
	if a.Top > a.Bottom || a.Left > a.Right || b.Top > b.Bottom || b.Left > b.Right {
		return false
	}
	return a.Top <= b.Bottom && b.Top <= a.Bottom && a.Left <= b.Right && b.Left <= a.Right
}

func check(m model.MergeRegion, rows, cols int) error {
	switch {
	case m.Top > m.Bottom:
		return fmt.Errorf("top %d after bottom %d", m.Top, m.Bottom)
	case m.Left > m.Right:
		return fmt.Errorf("left %d after right %d", m.Left, m.Right)
	case m.Top < 0 || m.Bottom >= rows:
		return fmt.Errorf("rows %d..%d outside 0..%d", m.Top, m.Bottom, rows-1)
	case m.Left < 0 || m.Right >= cols:
		return fmt.Errorf("cols %d..%d outside 0..%d", m.Left, m.Right, cols-1)
	}
	return nil
}
