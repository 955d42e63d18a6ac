package ocr

import "strings"

// Flatten collapses the nested parsed-result/overlay structure of a
// successful response into a flat fragment array, one fragment per
// recognized word, preserving the provider's line and word order.
// Words with blank text or a degenerate box are dropped.
func Flatten(resp *Response) []Fragment {
	var frags []Fragment
	for _, pr := range resp.ParsedResults {
		for _, line := range pr.TextOverlay.Lines {
			for _, w := range line.Words {
				text := strings.TrimSpace(w.WordText)
				if text == "" {
					continue
				}
				box := Box{
					X:      int(w.Left),
					Y:      int(w.Top),
					Width:  int(w.Width),
					Height: int(w.Height),
				}
				if box.Width <= 0 || box.Height <= 0 {
					continue
				}
				frags = append(frags, Fragment{Text: text, Box: box})
			}
		}
	}
	return frags
}

// PlainText joins the provider's per-page parsed text, for diagnostics when
// overlay output is missing.
func PlainText(resp *Response) string {
	var parts []string
	for _, pr := range resp.ParsedResults {
		if t := strings.TrimSpace(pr.ParsedText); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
