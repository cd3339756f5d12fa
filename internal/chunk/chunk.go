package chunk

import "unicode/utf8"

// Segment is a window of characters; Start and End are byte offsets into the source text.
type Segment struct {
	Index int
	Start int
	End   int
	Text  string
	Runes int
}

// Overlap returns percent of size in characters, floored.
func Overlap(size, percent int) int {
	return size * percent / 100
}

// SlidingWindow cuts text into windows of segmentChars characters that advance by
// segmentChars-overlapChars. The last window may be shorter; windows with fewer than
// minChars characters are dropped.
func SlidingWindow(text string, segmentChars, overlapChars, minChars int) []Segment {
	if segmentChars <= 0 || text == "" {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= segmentChars {
		overlapChars = segmentChars - 1
	}

	// offsets[i] is the byte offset of rune i; offsets[n] == len(text).
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	total := len(offsets)
	offsets = append(offsets, len(text))

	step := segmentChars - overlapChars
	segments := make([]Segment, 0, (total/step)+1)
	for start := 0; start < total; start += step {
		end := start + segmentChars
		if end > total {
			end = total
		}
		if end-start >= minChars {
			segments = append(segments, Segment{
				Index: len(segments),
				Start: offsets[start],
				End:   offsets[end],
				Text:  text[offsets[start]:offsets[end]],
				Runes: end - start,
			})
		}
	}

	return segments
}
