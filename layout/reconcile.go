// Package layout turns tile-local OCR fragments into full-image dialogue
// lines: coordinate reconciliation, overlap deduplication, and reading-order
// grouping.
package layout

import "github.com/hangana/toonvocab/ocr"

// DefaultEpsilonPx is the bbox tolerance when matching duplicate fragments
// across a tile overlap band. Empirically chosen; tune against real chapters.
const DefaultEpsilonPx = 10

// TileSet is the reconciled fragment set of one tile, tagged with the tile's
// vertical span in full-image coordinates. Sets must be in tile order (top
// to bottom).
type TileSet struct {
	StartY    int
	Height    int
	Fragments []ocr.Fragment
}

// Reconcile maps tile-local fragment coordinates into full-image space by
// shifting bbox.y by the tile's startY. X is untouched; tiles never split
// horizontally. Boxes are clamped so y stays within [0, imageHeight).
func Reconcile(frags []ocr.Fragment, startY, imageHeight int) []ocr.Fragment {
	out := make([]ocr.Fragment, 0, len(frags))
	for _, f := range frags {
		f.Box.Y += startY
		if f.Box.Y < 0 {
			f.Box.Y = 0
		}
		if imageHeight > 0 && f.Box.Y+f.Box.Height > imageHeight {
			f.Box.Height = imageHeight - f.Box.Y
			if f.Box.Height <= 0 {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// Dedup aggregates reconciled fragments from all tiles and removes the
// duplicates created by the overlap band between adjacent tiles. A fragment
// duplicates another when their text is identical and their boxes are within
// epsilon pixels of each other; only fragments inside an overlap band are
// eligible candidates, and the first tile's copy wins. Fragments outside any
// overlap band are never removed, so the output count is always ≤ the input
// count. Deterministic: identical input yields identical output.
func Dedup(sets []TileSet, epsilonPx int) []ocr.Fragment {
	if epsilonPx <= 0 {
		epsilonPx = DefaultEpsilonPx
	}

	var kept []ocr.Fragment
	for i, set := range sets {
		// Overlap band shared with the previous tile, in image coordinates.
		bandTop, bandBottom := 0, -1
		if i > 0 {
			prev := sets[i-1]
			bandTop = set.StartY
			bandBottom = prev.StartY + prev.Height
		}

		for _, f := range set.Fragments {
			if i > 0 && inBand(f, bandTop, bandBottom) && hasDuplicate(kept, f, bandTop, bandBottom, epsilonPx) {
				continue
			}
			kept = append(kept, f)
		}
	}
	return kept
}

// inBand reports whether the fragment's box lies (at least partly) inside
// the vertical band [top, bottom).
func inBand(f ocr.Fragment, top, bottom int) bool {
	return f.Box.Y < bottom && f.Box.Y+f.Box.Height > top
}

func hasDuplicate(kept []ocr.Fragment, f ocr.Fragment, bandTop, bandBottom, eps int) bool {
	for _, k := range kept {
		if k.Text != f.Text {
			continue
		}
		if !inBand(k, bandTop, bandBottom) {
			continue
		}
		if abs(k.Box.X-f.Box.X) <= eps &&
			abs(k.Box.Y-f.Box.Y) <= eps &&
			abs(k.Box.Width-f.Box.Width) <= eps &&
			abs(k.Box.Height-f.Box.Height) <= eps {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
