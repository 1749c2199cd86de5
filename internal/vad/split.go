package vad

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strings"

	"mediascribe/internal/converter"
	"mediascribe/internal/models"
	"mediascribe/pkg/binaries"
)

type silenceGap struct {
	start, end float64
}

func (g silenceGap) duration() float64 { return g.end - g.start }
func (g silenceGap) midpoint() float64 { return (g.start + g.end) / 2 }

// gapsBetween computes the silence gaps between consecutive speech
// intervals, plus the leading gap before the first interval and the
// trailing gap after the last, given the total media duration.
func gapsBetween(intervals []models.SpeechInterval, totalDuration float64) []silenceGap {
	var gaps []silenceGap
	if len(intervals) == 0 {
		return []silenceGap{{start: 0, end: totalDuration}}
	}
	if intervals[0].Start > 0 {
		gaps = append(gaps, silenceGap{start: 0, end: intervals[0].Start})
	}
	for i := 1; i < len(intervals); i++ {
		gaps = append(gaps, silenceGap{start: intervals[i-1].End, end: intervals[i].Start})
	}
	last := intervals[len(intervals)-1]
	if last.End < totalDuration {
		gaps = append(gaps, silenceGap{start: last.End, end: totalDuration})
	}
	return gaps
}

// chooseSplitPoint implements the redesigned §4.4 / §9 selection rule: among
// gaps with duration >= minSilenceS, pick the one whose midpoint is closest
// to the media's temporal midpoint; if none qualifies, fall back to the
// exact midpoint. This diverges deliberately from the reference
// implementation's split_audio_on_silence, which instead scans gaps in
// order and takes the first one at or past the midpoint meeting the
// duration floor — see DESIGN.md's Open Question decision.
func chooseSplitPoint(gaps []silenceGap, totalDuration, minSilenceS float64) float64 {
	mid := totalDuration / 2
	best := -1
	bestDist := math.Inf(1)
	for i, g := range gaps {
		if g.duration() < minSilenceS {
			continue
		}
		dist := math.Abs(g.midpoint() - mid)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best < 0 {
		return mid
	}
	return gaps[best].midpoint()
}

// SplitNearMiddle cuts media at the best silence point near its temporal
// midpoint (spec §4.4), returning the two on-disk halves and the exact
// split time. outDir receives the two part files.
func (e *Engine) SplitNearMiddle(ctx context.Context, mediaPath, outDir string, minSilenceS float64) (partA, partB string, splitS float64, err error) {
	if err = e.ensureLoaded(); err != nil {
		return "", "", 0, err
	}

	totalDuration, err := converter.ProbeDuration(ctx, mediaPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("vad: split: %w", err)
	}

	intervals, err := e.Intervals(ctx, mediaPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("vad: split: %w", err)
	}

	gaps := gapsBetween(intervals, totalDuration)
	splitS = chooseSplitPoint(gaps, totalDuration, minSilenceS)

	ext := filepath.Ext(mediaPath)
	base := strings.TrimSuffix(filepath.Base(mediaPath), ext)
	partA = filepath.Join(outDir, base+".part1"+ext)
	partB = filepath.Join(outDir, base+".part2"+ext)

	if err = cutAt(ctx, mediaPath, partA, 0, splitS); err != nil {
		return "", "", 0, err
	}
	if err = cutAt(ctx, mediaPath, partB, splitS, 0); err != nil {
		return "", "", 0, err
	}
	return partA, partB, splitS, nil
}

// cutAt extracts [start, start+duration) from src into dst via ffmpeg. A
// zero duration means "to end of file".
func cutAt(ctx context.Context, src, dst string, start, duration float64) error {
	args := []string{"-v", "error", "-y", "-ss", fmt.Sprintf("%f", start), "-i", src}
	if duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%f", duration))
	}
	args = append(args, "-c", "copy", dst)

	cmd := exec.CommandContext(ctx, binaries.FFmpeg(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("vad: cut %s [%.3f,+%.3f): %w: %s", src, start, duration, err, out)
	}
	return nil
}
