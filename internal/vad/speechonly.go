package vad

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"mediascribe/internal/models"
	"mediascribe/pkg/binaries"

	"golang.org/x/crypto/blake2b"
)

// SpeechOnly concatenates the speech-bearing portions of media into a single
// on-disk artifact, returning the new file and the speech intervals that
// were extracted (spec §4.4), grounded on the ffmpeg trim+concat approach in
// the reference audio merger.
func (e *Engine) SpeechOnly(ctx context.Context, mediaPath, outDir string) (outPath string, intervals []models.SpeechInterval, err error) {
	if err = e.ensureLoaded(); err != nil {
		return "", nil, err
	}

	intervals, err = e.Intervals(ctx, mediaPath)
	if err != nil {
		return "", nil, fmt.Errorf("vad: speech-only: %w", err)
	}
	if len(intervals) == 0 {
		return "", nil, fmt.Errorf("vad: speech-only: no speech detected in %s", mediaPath)
	}

	ext := filepath.Ext(mediaPath)
	segmentPaths := make([]string, 0, len(intervals))
	for i, iv := range intervals {
		segPath := filepath.Join(outDir, segmentName(mediaPath, i, iv)+ext)
		if err = cutAt(ctx, mediaPath, segPath, iv.Start, iv.Duration()); err != nil {
			return "", nil, err
		}
		segmentPaths = append(segmentPaths, segPath)
	}

	listPath := filepath.Join(outDir, segmentName(mediaPath, -1, models.SpeechInterval{})+".concat.txt")
	if err = writeConcatList(listPath, segmentPaths); err != nil {
		return "", nil, err
	}

	outPath = filepath.Join(outDir, segmentName(mediaPath, -2, models.SpeechInterval{})+"_speech_only"+ext)
	cmd := exec.CommandContext(ctx, binaries.FFmpeg(),
		"-v", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", outPath,
	)
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return "", nil, fmt.Errorf("vad: speech-only concat: %w: %s", runErr, out)
	}

	return outPath, intervals, nil
}

// segmentName derives a content-addressed scratch filename stem from the
// source path and segment bounds via blake2b, avoiding collisions when
// multiple jobs process files with the same basename concurrently.
func segmentName(mediaPath string, index int, iv models.SpeechInterval) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s|%d|%.6f|%.6f", mediaPath, index, iv.Start, iv.End)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func writeConcatList(listPath string, segmentPaths []string) error {
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("vad: write concat list: %w", err)
	}
	defer f.Close()

	for _, p := range segmentPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("vad: write concat list: %w", err)
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", abs); err != nil {
			return fmt.Errorf("vad: write concat list: %w", err)
		}
	}
	return nil
}
