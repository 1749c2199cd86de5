package converter

import (
	"testing"

	"mediascribe/internal/models"

	"github.com/stretchr/testify/require"
)

func TestRemapSpeechOnlyStaysWithinOwningSegment(t *testing.T) {
	intervals := []models.SpeechInterval{
		{Start: 10, End: 15}, // duration 5, cumulative 0
		{Start: 30, End: 33}, // duration 3, cumulative 5
	}
	// Concatenated timeline: [0,5) -> segment 0, [5,8) -> segment 1.
	lrc := "[00:02.00] A\n[00:06.00] B"
	remapped := RemapSpeechOnly(lrc, intervals)
	lines := ParseLRC(remapped)
	require.Len(t, lines, 2)

	// t=2 is in segment 0 [0,5): remapped = 10 + (2-0) = 12, within [10,15).
	require.InDelta(t, 12.0, lines[0].T, 1e-6)
	// t=6 is in segment 1 [5,8): remapped = 30 + (6-5) = 31, within [30,33).
	require.InDelta(t, 31.0, lines[1].T, 1e-6)
}

func TestShiftIsIdempotentAtZeroAndAdditiveOtherwise(t *testing.T) {
	lrc := "[00:02.00] A"
	require.Equal(t, lrc, ShiftTimestamps(lrc, 0))

	shifted := ShiftTimestamps(lrc, 210)
	lines := ParseLRC(shifted)
	require.Len(t, lines, 1)
	require.InDelta(t, 212.0, lines[0].T, 1e-6)
}

func TestMergeShiftedAppliesOffsetToSecondHalf(t *testing.T) {
	a := "[00:02.00] A"
	b := "[00:03.00] B"
	merged := MergeShifted(a, b, 210.0)
	lines := ParseLRC(merged)
	require.Len(t, lines, 2)
	require.Equal(t, "A", lines[0].Text)
	require.InDelta(t, 2.0, lines[0].T, 1e-6)
	require.Equal(t, "B", lines[1].Text)
	require.InDelta(t, 213.0, lines[1].T, 1e-6) // 210 + 3
}
