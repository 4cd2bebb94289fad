package format

import "github.com/kiln-shell/kiln/pkg/ui"

// limitText truncates styled text to at most max characters of content,
// appending the marker when anything was cut. Every formatted result passes
// through here, which is what keeps output bounded regardless of the
// formatting path taken.
func limitText(t ui.Text, max int, marker ui.Text) ui.Text {
	if t.Len() <= max {
		return t
	}
	budget := max
	var out ui.Text
	for _, seg := range t {
		if len(seg.Text) >= budget {
			out = append(out, &ui.Segment{Style: seg.Style, Text: truncateString(seg.Text, budget)})
			break
		}
		budget -= len(seg.Text)
		out = append(out, seg)
	}
	return append(out, marker...)
}

// truncateString cuts s to at most max bytes without splitting a UTF-8
// sequence.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && s[max]&0xc0 == 0x80 {
		max--
	}
	return s[:max]
}
