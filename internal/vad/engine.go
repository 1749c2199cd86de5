// Package vad implements the VAD Engine component (spec §4.4): speech
// interval detection plus the two derived operations the Worker's recursive
// split relies on, "split near middle" and "speech-only concatenation".
//
// The reference implementation wraps Silero VAD, a pretrained neural model.
// No Go binding for Silero (or any other neural VAD) exists anywhere in the
// retrieved corpus, so this package substitutes a classic energy-threshold
// classifier with hangover, operating on PCM decoded via ffmpeg. It is
// grounded on the energy/threshold shape of frame classification used by
// voicetyped's VAD engine (other_examples), adapted to batch whole-file
// interval extraction instead of streaming start/end events.
package vad

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"sync"

	"mediascribe/internal/models"
	"mediascribe/pkg/binaries"
	"mediascribe/pkg/logger"
)

const (
	sampleRate     = 16000
	frameMillis    = 30
	frameSamples   = sampleRate * frameMillis / 1000
	bytesPerSample = 2
)

// Config tunes the energy classifier. Zero value is not usable; use
// DefaultConfig.
type Config struct {
	// EnergyThreshold is the RMS amplitude (0..1 of int16 full scale) above
	// which a frame is classified as speech.
	EnergyThreshold float64
	// HangoverFrames holds a speech segment open for this many additional
	// silent frames, absorbing brief dips mid-utterance.
	HangoverFrames int
	// MinSpeechFrames drops speech runs shorter than this many frames as
	// noise spikes.
	MinSpeechFrames int
}

// DefaultConfig mirrors the reference implementation's defaults closely
// enough to produce comparable segment boundaries on typical speech audio.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold: 0.02,
		HangoverFrames:  8,  // 240ms
		MinSpeechFrames: 3,  // 90ms
	}
}

// Engine is the VAD Engine. The zero value is not usable; use New.
type Engine struct {
	cfg Config

	loadOnce sync.Once
	loadErr  error
}

// New constructs an Engine. Model loading (here, validating the classifier
// configuration) is deferred to first use per spec §9 and §4.4: "the VAD
// model instance is loaded lazily on first use and shared process-wide
// thereafter."
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// ensureLoaded is the one-shot initializer guarding the shared model
// instance, grounded on the singleflight+cache readiness pattern in the
// reference adapter base class, expressed here with sync.Once since there
// is exactly one caller path to dedupe rather than concurrent callers
// racing distinct cache keys.
func (e *Engine) ensureLoaded() error {
	e.loadOnce.Do(func() {
		if e.cfg.EnergyThreshold <= 0 {
			e.loadErr = fmt.Errorf("vad: energy threshold must be positive")
			return
		}
		logger.Info("vad engine ready", "threshold", e.cfg.EnergyThreshold)
	})
	return e.loadErr
}

// decodePCM decodes media to mono 16kHz signed 16-bit little-endian PCM via
// ffmpeg, grounded on the ffmpeg exec.CommandContext invocation style used
// throughout the reference's processing pipeline and audio merger.
func decodePCM(ctx context.Context, mediaPath string) ([]int16, error) {
	cmd := exec.CommandContext(ctx, binaries.FFmpeg(),
		"-v", "error",
		"-i", mediaPath,
		"-f", "s16le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("vad: decode pcm: %w: %s", err, stderr.String())
	}

	raw := stdout.Bytes()
	n := len(raw) / bytesPerSample
	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*bytesPerSample:]))
	}
	return pcm, nil
}

// frameEnergy returns the RMS amplitude of a frame, normalized to [0,1].
func frameEnergy(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range frame {
		v := float64(s) / 32768.0
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(frame)))
}

// classify splits pcm into fixed-size frames and returns a per-frame speech
// flag, applying hangover and minimum-run filtering.
func (e *Engine) classify(pcm []int16) []bool {
	numFrames := len(pcm) / frameSamples
	if numFrames == 0 {
		return nil
	}

	raw := make([]bool, numFrames)
	for i := 0; i < numFrames; i++ {
		frame := pcm[i*frameSamples : (i+1)*frameSamples]
		raw[i] = frameEnergy(frame) >= e.cfg.EnergyThreshold
	}

	// Hangover: extend each speech run forward by HangoverFrames.
	withHangover := make([]bool, numFrames)
	copy(withHangover, raw)
	hangoverRemaining := 0
	for i := 0; i < numFrames; i++ {
		if raw[i] {
			hangoverRemaining = e.cfg.HangoverFrames
			withHangover[i] = true
		} else if hangoverRemaining > 0 {
			withHangover[i] = true
			hangoverRemaining--
		}
	}

	// Drop speech runs shorter than MinSpeechFrames.
	result := make([]bool, numFrames)
	copy(result, withHangover)
	i := 0
	for i < numFrames {
		if !result[i] {
			i++
			continue
		}
		j := i
		for j < numFrames && result[j] {
			j++
		}
		if j-i < e.cfg.MinSpeechFrames {
			for k := i; k < j; k++ {
				result[k] = false
			}
		}
		i = j
	}

	return result
}

// framesToIntervals merges contiguous speech frames into second-denominated
// intervals.
func framesToIntervals(flags []bool) []models.SpeechInterval {
	frameDur := float64(frameMillis) / 1000.0
	var intervals []models.SpeechInterval

	i := 0
	for i < len(flags) {
		if !flags[i] {
			i++
			continue
		}
		j := i
		for j < len(flags) && flags[j] {
			j++
		}
		intervals = append(intervals, models.SpeechInterval{
			Start: float64(i) * frameDur,
			End:   float64(j) * frameDur,
		})
		i = j
	}
	return intervals
}

// Intervals returns the ordered, non-overlapping speech intervals of media
// in original-timeline seconds (spec §4.4).
func (e *Engine) Intervals(ctx context.Context, mediaPath string) ([]models.SpeechInterval, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}

	pcm, err := decodePCM(ctx, mediaPath)
	if err != nil {
		return nil, err
	}

	flags := e.classify(pcm)
	return framesToIntervals(flags), nil
}
