// Package worker implements the Worker pipeline state machine (spec §4.3):
// the eleven-stage sequential execution of one job, and the recursive
// VAD-fallback transcription it drives at stage 5 (spec §4.3.1).
//
// Grounded on the reference's transcribe_media_task (celery/task.py) for
// stage order and the try/except-with-cleanup-in-both-paths shape, and
// TranscriptionTask.transcribe_audio/_attempt_transcription/
// _transcribe_with_splitting (services/transcription/flows.py) for the
// recursive split algorithm.
package worker

import "fmt"

// Fatal is the typed envelope for an error that immediately short-circuits
// the pipeline to LOG_CLOSE(FAILED)+CLEANUP (spec §7).
type Fatal struct {
	Stage   string
	Message string
}

func (e *Fatal) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// NewFatal builds a Fatal envelope for stage.
func NewFatal(stage, format string, args ...interface{}) *Fatal {
	return &Fatal{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// NonFatal is the typed envelope for a warning that is absorbed; the
// pipeline continues past the stage that produced it (spec §7: translation
// is the only non-fatal stage).
type NonFatal struct {
	Stage   string
	Message string
}

func (e *NonFatal) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// NewNonFatal builds a NonFatal envelope for stage.
func NewNonFatal(stage, format string, args ...interface{}) *NonFatal {
	return &NonFatal{Stage: stage, Message: fmt.Sprintf(format, args...)}
}
