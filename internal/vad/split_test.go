package vad

import (
	"math"
	"testing"

	"mediascribe/internal/models"

	"github.com/stretchr/testify/require"
)

func TestChooseSplitPointPrefersQualifyingGapClosestToMidpoint(t *testing.T) {
	// Total duration 100s, midpoint 50s. Two qualifying gaps (>= 2s):
	// [20,23) midpoint 21.5, and [48,52) midpoint 50. The second is closer.
	intervals := []models.SpeechInterval{
		{Start: 0, End: 20},
		{Start: 23, End: 48},
		{Start: 52, End: 100},
	}
	gaps := gapsBetween(intervals, 100)
	splitS := chooseSplitPoint(gaps, 100, 2.0)
	require.InDelta(t, 50.0, splitS, 1e-9)
}

func TestChooseSplitPointFallsBackToExactMidpointWhenNoGapQualifies(t *testing.T) {
	// All gaps shorter than the 5s floor.
	intervals := []models.SpeechInterval{
		{Start: 0, End: 10},
		{Start: 12, End: 40},
		{Start: 43, End: 100},
	}
	gaps := gapsBetween(intervals, 100)
	splitS := chooseSplitPoint(gaps, 100, 5.0)
	require.Less(t, math.Abs(splitS-50.0), 1e-9)
}

func TestChosenGapDurationMeetsFloorWheneverAnyGapQualifies(t *testing.T) {
	minSilenceS := 3.0
	intervals := []models.SpeechInterval{
		{Start: 0, End: 30},
		{Start: 31, End: 60}, // gap of 1s, does not qualify
		{Start: 65, End: 100}, // gap of 5s, qualifies
	}
	totalDuration := 100.0
	gaps := gapsBetween(intervals, totalDuration)

	var anyQualifies bool
	for _, g := range gaps {
		if g.duration() >= minSilenceS {
			anyQualifies = true
		}
	}
	require.True(t, anyQualifies)

	splitS := chooseSplitPoint(gaps, totalDuration, minSilenceS)
	require.InDelta(t, 62.5, splitS, 1e-9) // midpoint of the only qualifying gap [60,65)
}
