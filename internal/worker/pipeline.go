package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediascribe/internal/converter"
	"mediascribe/internal/cost"
	"mediascribe/internal/joblog"
	"mediascribe/internal/langmatch"
	"mediascribe/internal/modeladapter"
	"mediascribe/internal/models"
	"mediascribe/pkg/logger"
)

// Publisher is the Event Bus's publication surface as the Worker needs it.
type Publisher interface {
	Publish(event models.ProgressEvent)
}

// Worker drives one job through the eleven-stage pipeline of spec §4.3:
// LOG_OPEN, PROBE, ADAPTER_INIT, PROMPT_PREP, TRANSCRIBE_RECURSIVE, REMAP,
// TRANSLATE, CONVERT, ACCOUNT, LOG_CLOSE, CLEANUP.
//
// Grounded stage-by-stage on the reference's transcribe_media_task
// (celery/task.py): a sequential function body with a single top-level
// try/except, an update_status callback fired at each stage boundary, and a
// cleanup call that runs on both the success and the exception path.
type Worker struct {
	JobLog        *joblog.Store
	Cost          *cost.Calculator
	VAD           vadSplitter
	Adapters      *modeladapter.Registry
	Bus           Publisher
	ScratchRoot   string
	TSplitSeconds float64
	// Duration probes a media file's length in seconds. Defaults to
	// converter.ProbeDuration (an ffprobe shell-out) when nil; tests inject
	// a fake to avoid depending on ffprobe or real media files.
	Duration durationFunc
}

func (w *Worker) probeDuration(ctx context.Context, path string) (float64, error) {
	if w.Duration != nil {
		return w.Duration(ctx, path)
	}
	return converter.ProbeDuration(ctx, path)
}

// Run executes the pipeline for job and returns its result, or the Fatal
// error that aborted it.
func (w *Worker) Run(ctx context.Context, job models.JobDescriptor) (*models.JobResult, error) {
	start := time.Now()

	w.publish(job, models.StageProcessing, "LOG_OPEN")
	row := &models.JobLogRow{
		JobID:            job.JobID,
		Status:           models.StatusProcessing,
		OriginalFilename: job.Filename,
		ModelID:          job.Model,
		SourceLanguage:   job.SourceLang,
	}
	if err := w.JobLog.Insert(ctx, row); err != nil {
		// Persistence failure here aborts the job before it was ever
		// created; there is no row to close and nothing was allocated.
		fatal := NewFatal("LOG_OPEN", "insert job log row: %v", err)
		w.publish(job, models.StageFailed, fatal.Error())
		return nil, fatal
	}

	scratch := newScratchTracker()
	adapter, result, procErr := w.process(ctx, job, scratch, start)

	w.closeLog(ctx, job, result, procErr, start)
	w.cleanup(ctx, job, scratch, adapter)

	if procErr != nil {
		w.publish(job, models.StageFailed, procErr.Error())
		return nil, procErr
	}
	w.publish(job, models.StageCompleted, "done", result)
	return result, nil
}

// process runs stages 2 through 9 (PROBE .. ACCOUNT) and returns whichever
// Adapter ADAPTER_INIT built, so CLEANUP can Release it regardless of
// outcome.
func (w *Worker) process(ctx context.Context, job models.JobDescriptor, scratch *scratchTracker, start time.Time) (modeladapter.Adapter, *models.JobResult, error) {
	w.publish(job, models.StageProcessing, "PROBE")
	duration, err := w.probeDuration(ctx, job.MediaPath)
	if err != nil {
		logger.Warn("worker: PROBE could not read duration, continuing with 0", "job_id", job.JobID, "error", err)
		duration = 0
	}

	w.publish(job, models.StageProcessing, "ADAPTER_INIT")
	adapter, err := w.Adapters.Build(job.Provider, modeladapter.Config{Model: job.Model, APIKey: job.APIKeys})
	if err != nil {
		return nil, nil, NewFatal("ADAPTER_INIT", "%v", err)
	}

	w.publish(job, models.StageProcessing, "PROMPT_PREP")
	prompt := buildTranscriptionPrompt(job)

	w.publish(job, models.StageProcessing, "TRANSCRIBE_RECURSIVE")
	scratchDir := filepath.Join(w.ScratchRoot, job.JobID)
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return adapter, nil, NewFatal("TRANSCRIBE_RECURSIVE", "create scratch dir: %v", err)
	}
	tSplit := w.TSplitSeconds
	if tSplit <= 0 {
		tSplit = defaultTSplitSeconds
	}
	rec := &recursor{
		adapter:       adapter,
		vad:           w.VAD,
		duration:      w.probeDuration,
		prompt:        prompt,
		scratchDir:    scratchDir,
		tSplitSeconds: tSplit,
		scratch:       scratch,
	}
	text, inputTokens, outputTokens, err := rec.transcribe(ctx, job.MediaPath, 0)
	if err != nil {
		return adapter, nil, NewFatal("TRANSCRIBE_RECURSIVE", "%v", err)
	}

	if len(job.SpeechIntervals) > 0 {
		w.publish(job, models.StageProcessing, "REMAP")
		text = converter.RemapSpeechOnly(text, job.SpeechIntervals)
	}

	sourceLang := job.SourceLang
	var translationInputTokens, translationOutputTokens int
	if job.TargetLang != "" {
		w.publish(job, models.StageProcessing, "TRANSLATE")
		if sourceLang == "" {
			sourceLang = langmatch.DetectSourceLanguage(plainText(text))
		}
		if sourceLang == "" || !langmatch.SamePrimarySubtag(sourceLang, job.TargetLang) {
			tres, terr := adapter.Translate(ctx, text, buildTranslationPrompt(job.TargetLang))
			switch {
			case terr != nil:
				logger.Warn("worker: TRANSLATE failed, keeping untranslated transcript", "job_id", job.JobID, "error", NewNonFatal("TRANSLATE", "%v", terr))
			case !tres.Success:
				logger.Warn("worker: TRANSLATE declined by provider, keeping untranslated transcript", "job_id", job.JobID, "text", tres.Text)
			default:
				text = tres.Text
				translationInputTokens = tres.InputTokens
				translationOutputTokens = tres.OutputTokens
			}
		}
	}

	w.publish(job, models.StageProcessing, "CONVERT")
	doc := converter.FromLRC(text)

	w.publish(job, models.StageProcessing, "ACCOUNT")
	var items []models.CostItem
	if inputTokens+outputTokens > 0 {
		items = append(items, models.CostItem{
			TaskName:     "total_transcription",
			Model:        job.Model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			ContentType:  models.ContentAudio,
		})
	}
	if translationInputTokens+translationOutputTokens > 0 {
		items = append(items, models.CostItem{
			TaskName:     "total_translation",
			Model:        job.Model,
			InputTokens:  translationInputTokens,
			OutputTokens: translationOutputTokens,
			ContentType:  models.ContentText,
		})
	}
	priced, err := w.Cost.Calculate(job.Model, items)
	if err != nil {
		return adapter, nil, NewFatal("ACCOUNT", "%v", err)
	}

	result := &models.JobResult{
		JobID:                 job.JobID,
		Transcripts:           doc,
		TokensUsed:            priced.TotalTokens,
		Cost:                  priced.Cost,
		Model:                 job.Model,
		SourceLanguage:        sourceLang,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
		AudioDurationSeconds:  duration,
		CostBreakdown:         priced.Breakdown,
	}
	return adapter, result, nil
}

// closeLog performs LOG_CLOSE (spec §4.3 step 10). A persistence failure
// here is only logged: the result still reaches the Gateway, per spec §7.
func (w *Worker) closeLog(ctx context.Context, job models.JobDescriptor, result *models.JobResult, procErr error, start time.Time) {
	fields := map[string]interface{}{
		"processing_time_seconds": time.Since(start).Seconds(),
	}
	if procErr != nil {
		msg := procErr.Error()
		fields["status"] = models.StatusFailed
		fields["error_message"] = msg
	} else {
		fields["status"] = models.StatusCompleted
		fields["audio_duration_seconds"] = result.AudioDurationSeconds
		fields["total_tokens"] = result.TokensUsed
		fields["cost"] = result.Cost
		fields["source_language"] = result.SourceLanguage
		if blob, err := json.Marshal(result); err != nil {
			logger.Warn("worker: LOG_CLOSE failed to marshal result payload", "job_id", job.JobID, "error", err)
		} else {
			s := string(blob)
			fields["result_json"] = s
		}
	}
	if err := w.JobLog.Update(ctx, job.JobID, fields); err != nil {
		logger.Warn("worker: LOG_CLOSE update failed", "job_id", job.JobID, "error", err)
	}
}

// cleanup performs CLEANUP (spec §4.3 step 11) on both the success and
// failure path: delete scratch artifacts the recursion created, and release
// any remote blob handles the Adapter is still holding. It never deletes
// job.MediaPath, the originally submitted file, mirroring the reference's
// exclusion of its own original_file from local_cleanup_list.
func (w *Worker) cleanup(ctx context.Context, job models.JobDescriptor, scratch *scratchTracker, adapter modeladapter.Adapter) {
	for _, path := range scratch.all() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("worker: CLEANUP failed to remove scratch file", "job_id", job.JobID, "path", path, "error", err)
		}
	}
	if adapter != nil {
		if err := adapter.Release(ctx); err != nil {
			logger.Warn("worker: CLEANUP failed to release adapter blobs", "job_id", job.JobID, "error", err)
		}
	}
}

func (w *Worker) publish(job models.JobDescriptor, code models.StageCode, text string, result ...interface{}) {
	if w.Bus == nil {
		return
	}
	event := models.ProgressEvent{JobID: job.JobID, ClientID: job.ClientID, StageCode: code, StageText: text}
	if len(result) > 0 {
		event.Result = result[0]
	}
	w.Bus.Publish(event)
}

// defaultTranscriptionPrompt is used whenever a submission's prompt field
// is empty (spec §4.3 step 4: "the provided or default transcription
// prompt is used"), grounded on flows.py's `request.prompt or "You are an
// expert audio transcriptionist..."` fallback.
const defaultTranscriptionPrompt = "You are an expert audio transcriptionist. Please transcribe the audio file into a detailed, accurate, and well-formatted LRC file."

// buildTranscriptionPrompt implements PROMPT_PREP (spec §4.3 step 4): a
// plain transcription prompt, or an alignment prompt demanding the model
// time-align ReferenceText verbatim when one was supplied.
func buildTranscriptionPrompt(job models.JobDescriptor) string {
	if job.ReferenceText == "" {
		if job.Prompt == "" {
			return defaultTranscriptionPrompt
		}
		return job.Prompt
	}
	var b strings.Builder
	b.WriteString("Align the following reference text to the audio's timing, producing one LRC line per spoken segment. ")
	b.WriteString("Do not paraphrase or correct the reference text; reproduce it verbatim against the timestamps you infer.\n\n")
	b.WriteString("Reference text:\n")
	b.WriteString(job.ReferenceText)
	if job.Prompt != "" {
		b.WriteString("\n\nAdditional instructions:\n")
		b.WriteString(job.Prompt)
	}
	return b.String()
}

// buildTranslationPrompt implements the TRANSLATE stage's prompt (spec
// §4.3 step 7): translate to targetLang while preserving LRC formatting.
func buildTranslationPrompt(targetLang string) string {
	return fmt.Sprintf(
		"Translate the text of every line in this LRC document to %s. "+
			"Preserve every [mm:ss.xx] timestamp exactly as given and keep one line per timestamp; "+
			"translate only the text that follows each timestamp.",
		targetLang,
	)
}

// plainText strips LRC timestamps, returning the free text joined by
// spaces, for language detection.
func plainText(lrcText string) string {
	lines := converter.ParseLRC(lrcText)
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, " ")
}
