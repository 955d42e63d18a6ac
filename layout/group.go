package layout

import (
	"sort"
	"strings"

	"github.com/hangana/toonvocab/ocr"
)

// DefaultGapPx is the vertical gap under which a fragment joins the running
// dialogue line. ~100px matches typical speech-bubble line spacing at webtoon
// resolution; no single value is universally correct, so callers can tune it.
const DefaultGapPx = 100

// Line is one visual dialogue line: fragments merged left-to-right, joined
// by single spaces, with the union bounding box.
type Line struct {
	Text string  `json:"text"`
	Box  ocr.Box `json:"bbox"`
}

// GroupLines merges deduplicated full-image fragments into reading-order
// dialogue lines. Fragments are sorted by vertical position; a fragment
// whose box sits within gapPx of the current line's box joins it, otherwise
// it starts a new line. Lines come out strictly top-to-bottom.
func GroupLines(frags []ocr.Fragment, gapPx int) []Line {
	if gapPx <= 0 {
		gapPx = DefaultGapPx
	}
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]ocr.Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y != sorted[j].Box.Y {
			return sorted[i].Box.Y < sorted[j].Box.Y
		}
		return sorted[i].Box.X < sorted[j].Box.X
	})

	var lines []Line
	var current []ocr.Fragment
	for _, f := range sorted {
		if len(current) == 0 {
			current = append(current, f)
			continue
		}
		box := unionBox(current)
		if verticalGap(box, f.Box) < gapPx {
			current = append(current, f)
			continue
		}
		lines = append(lines, finishLine(current))
		current = []ocr.Fragment{f}
	}
	lines = append(lines, finishLine(current))
	return lines
}

// CombinedText joins line texts with newlines: the dialogue block handed to
// the term extractor.
func CombinedText(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// verticalGap is the distance between a line's box and a fragment's box,
// zero when they overlap vertically.
func verticalGap(line, frag ocr.Box) int {
	if frag.Y >= line.Y+line.Height {
		return frag.Y - (line.Y + line.Height)
	}
	if frag.Y+frag.Height <= line.Y {
		return line.Y - (frag.Y + frag.Height)
	}
	return 0
}

// finishLine orders a line's fragments left-to-right and joins them.
func finishLine(frags []ocr.Fragment) Line {
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Box.X < frags[j].Box.X
	})
	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}
	return Line{
		Text: strings.Join(texts, " "),
		Box:  unionBox(frags),
	}
}

func unionBox(frags []ocr.Fragment) ocr.Box {
	b := frags[0].Box
	minX, minY := b.X, b.Y
	maxX, maxY := b.X+b.Width, b.Y+b.Height
	for _, f := range frags[1:] {
		if f.Box.X < minX {
			minX = f.Box.X
		}
		if f.Box.Y < minY {
			minY = f.Box.Y
		}
		if f.Box.X+f.Box.Width > maxX {
			maxX = f.Box.X + f.Box.Width
		}
		if f.Box.Y+f.Box.Height > maxY {
			maxY = f.Box.Y + f.Box.Height
		}
	}
	return ocr.Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
