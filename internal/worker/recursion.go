package worker

import (
	"context"
	"fmt"

	"mediascribe/internal/converter"
	"mediascribe/internal/modeladapter"
)

// defaultTSplitSeconds is T_SPLIT (spec §4.3.1): below this duration a
// transcription failure is accepted outright rather than split further.
const defaultTSplitSeconds = 180.0

// minSilenceSeconds is the floor a qualifying silence gap's duration must
// clear before SplitNearMiddle will use it (spec §4.4).
const minSilenceSeconds = 1.0

// durationFunc probes a media file's duration, injectable for testing.
type durationFunc func(ctx context.Context, mediaPath string) (float64, error)

// vadSplitter is the subset of *vad.Engine the recursion needs; *vad.Engine
// satisfies it structurally.
type vadSplitter interface {
	SplitNearMiddle(ctx context.Context, mediaPath, outDir string, minSilenceS float64) (partA, partB string, splitS float64, err error)
}

// recursor drives one job's TRANSCRIBE_RECURSIVE stage (spec §4.3.1),
// grounded directly on the reference's TranscriptionTask.transcribe_audio/
// _attempt_transcription/_transcribe_with_splitting: attempt a whole-file
// transcription; on failure, accept it outright if the file is already
// shorter than T_SPLIT or no VAD is available, else split at the qualifying
// silence closest to the temporal midpoint and recurse on both halves, failing fast on either and merging
// the two results with an offset shift on success.
type recursor struct {
	adapter       modeladapter.Adapter
	vad           vadSplitter
	duration      durationFunc
	prompt        string
	scratchDir    string
	tSplitSeconds float64
	scratch       *scratchTracker
}

// transcribe returns the merged transcript text and summed token counts, or
// the deepest attempt's underlying failure if no split was possible or any
// branch failed.
func (r *recursor) transcribe(ctx context.Context, mediaPath string, depth int) (text string, inputTokens, outputTokens int, err error) {
	res, attemptErr := r.adapter.Transcribe(ctx, mediaPath, r.prompt)

	var stepFailure error
	switch {
	case attemptErr != nil:
		stepFailure = attemptErr
	case !res.Success:
		stepFailure = fmt.Errorf("provider declined: %s", res.Text)
	default:
		return res.Text, res.InputTokens, res.OutputTokens, nil
	}

	duration, durErr := r.duration(ctx, mediaPath)
	if durErr != nil || duration < r.tSplitSeconds {
		// Base case (spec §4.3.1 step 2): too short to split, or its
		// duration couldn't even be read. Return the original failure
		// verbatim rather than retrying or inventing a new one.
		return "", 0, 0, stepFailure
	}

	if r.vad == nil {
		// VAD unavailable: splitting is disabled (spec §7), so step 3
		// short-circuits and returns the underlying failure.
		return "", 0, 0, stepFailure
	}

	partA, partB, splitS, splitErr := r.vad.SplitNearMiddle(ctx, mediaPath, r.scratchDir, minSilenceSeconds)
	if splitErr != nil {
		return "", 0, 0, stepFailure
	}
	r.scratch.add(partA, partB)

	textA, inA, outA, errA := r.transcribe(ctx, partA, depth+1)
	if errA != nil {
		return "", 0, 0, errA
	}
	textB, inB, outB, errB := r.transcribe(ctx, partB, depth+1)
	if errB != nil {
		return "", 0, 0, errB
	}

	merged := converter.MergeShifted(textA, textB, splitS)
	return merged, inA + inB, outA + outB, nil
}

// scratchTracker accumulates scratch file paths created during a job so
// CLEANUP can delete every one of them regardless of outcome (spec §4.3
// step 11), mirroring the reference's local_cleanup_list.
type scratchTracker struct {
	paths []string
}

func newScratchTracker() *scratchTracker {
	return &scratchTracker{}
}

func (s *scratchTracker) add(paths ...string) {
	s.paths = append(s.paths, paths...)
}

func (s *scratchTracker) all() []string {
	return s.paths
}
