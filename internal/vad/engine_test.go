package vad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func silentFrame() []int16 {
	return make([]int16, frameSamples)
}

func loudFrame() []int16 {
	f := make([]int16, frameSamples)
	for i := range f {
		f[i] = int16(20000 * math.Sin(float64(i)))
	}
	return f
}

func TestFrameEnergyDistinguishesSilenceFromSpeech(t *testing.T) {
	require.Less(t, frameEnergy(silentFrame()), 0.001)
	require.Greater(t, frameEnergy(loudFrame()), 0.1)
}

func TestClassifyMergesShortGapsViaHangover(t *testing.T) {
	e := New(Config{EnergyThreshold: 0.02, HangoverFrames: 2, MinSpeechFrames: 1})

	var pcm []int16
	pcm = append(pcm, loudFrame()...)
	pcm = append(pcm, silentFrame()...) // single silent frame, absorbed by hangover
	pcm = append(pcm, loudFrame()...)

	flags := e.classify(pcm)
	require.Len(t, flags, 3)
	require.True(t, flags[0])
	require.True(t, flags[1]) // held open by hangover
	require.True(t, flags[2])
}

func TestClassifyDropsSpeechRunsShorterThanMinimum(t *testing.T) {
	e := New(Config{EnergyThreshold: 0.02, HangoverFrames: 0, MinSpeechFrames: 3})

	var pcm []int16
	pcm = append(pcm, loudFrame()...) // single-frame blip, below MinSpeechFrames
	pcm = append(pcm, silentFrame()...)
	pcm = append(pcm, silentFrame()...)

	flags := e.classify(pcm)
	require.Len(t, flags, 3)
	require.False(t, flags[0])
	require.False(t, flags[1])
	require.False(t, flags[2])
}

func TestFramesToIntervalsMergesContiguousSpeechFrames(t *testing.T) {
	intervals := framesToIntervals([]bool{false, true, true, false, true})
	require.Len(t, intervals, 2)

	frameDur := float64(frameMillis) / 1000.0
	require.InDelta(t, frameDur, intervals[0].Start, 1e-9)
	require.InDelta(t, 3*frameDur, intervals[0].End, 1e-9)
	require.InDelta(t, 4*frameDur, intervals[1].Start, 1e-9)
	require.InDelta(t, 5*frameDur, intervals[1].End, 1e-9)
}

func TestEnsureLoadedRejectsInvalidConfig(t *testing.T) {
	e := New(Config{EnergyThreshold: 0})
	require.Error(t, e.ensureLoaded())
}
