package converter

import "mediascribe/internal/models"

// RemapSpeechOnly rewrites LRC timestamps produced from a speech-only
// concatenation back onto the original timeline, given the ordered speech
// intervals that were concatenated to build it (spec §4.6).
//
// For each parsed time t, it finds the smallest i such that
// t < cumulative[i] + duration[i], then rewrites the time to
// intervals[i].Start + (t - cumulative[i]).
func RemapSpeechOnly(lrcText string, intervals []models.SpeechInterval) string {
	lines := ParseLRC(lrcText)
	if len(lines) == 0 {
		return ""
	}

	durations := make([]float64, len(intervals))
	cumulative := make([]float64, len(intervals))
	var running float64
	for i, iv := range intervals {
		durations[i] = iv.Duration()
		cumulative[i] = running
		running += durations[i]
	}

	remapped := make([]models.LRCLine, 0, len(lines))
	for _, line := range lines {
		segmentIndex := -1
		for i, cum := range cumulative {
			if line.T < cum+durations[i] {
				segmentIndex = i
				break
			}
		}
		if segmentIndex == -1 {
			continue
		}
		timeInSegment := line.T - cumulative[segmentIndex]
		remapped = append(remapped, models.LRCLine{
			T:    intervals[segmentIndex].Start + timeInSegment,
			Text: line.Text,
		})
	}

	return RenderLRC(remapped)
}

// ShiftTimestamps adds a constant offset to every parsed timestamp (used
// after a binary split, per spec §4.3.1 step 5). A zero offset is
// idempotent; any other offset is additive.
func ShiftTimestamps(lrcText string, offsetSeconds float64) string {
	if offsetSeconds == 0 {
		return lrcText
	}
	lines := ParseLRC(lrcText)
	shifted := make([]models.LRCLine, len(lines))
	for i, l := range lines {
		shifted[i] = models.LRCLine{T: l.T + offsetSeconds, Text: l.Text}
	}
	return RenderLRC(shifted)
}

// MergeShifted concatenates the LRC of a first segment with the LRC of a
// second segment shifted by splitSeconds, as step 5 of the recursive
// transcription algorithm: result = LRC(A1) ⊕ shift(LRC(A2), +s).
func MergeShifted(lrcA, lrcB string, splitSeconds float64) string {
	shiftedB := ShiftTimestamps(lrcB, splitSeconds)
	switch {
	case lrcA == "":
		return shiftedB
	case shiftedB == "":
		return lrcA
	default:
		return lrcA + "\n" + shiftedB
	}
}
