// Package intake implements the Intake API component (spec §4.1, §6):
// admission of a job either as a direct file upload or a remote URL fetch,
// validation, job-scoped scratch storage, and handoff onto the Job Queue.
//
// Grounded on the original upload.py's MIME allow-list and
// transcription.py's YouTube-download-then-submit flow, adapted to Go: the
// allow-list is carried over verbatim, and the bounded-concurrency URL
// fetch is grounded on the teacher's pkg/downloader/downloader.go.
package intake

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"mediascribe/internal/cost"
	"mediascribe/internal/models"
	"mediascribe/pkg/downloader"
	"mediascribe/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// allowedMIMETypes mirrors the original's SUPPORTED_MIME_TYPES set.
var allowedMIMETypes = map[string]bool{
	"audio/wav": true, "audio/x-wav": true, "audio/wave": true,
	"audio/mpeg": true, "audio/mp3": true, "audio/flac": true,
	"audio/opus": true, "audio/m4a": true, "audio/x-m4a": true,
	"audio/mp4": true, "audio/aac": true, "audio/webm": true,
	"video/mp4": true, "video/mpeg": true, "video/webm": true,
	"video/quicktime": true, "video/x-flv": true, "video/x-ms-wmv": true,
	"video/3gpp": true,
}

// IsSupportedMIME reports whether mimeType is in the admission allow-list.
func IsSupportedMIME(mimeType string) bool {
	return allowedMIMETypes[mimeType]
}

// JobSubmitter is the Job Queue's admission surface as Intake needs it.
type JobSubmitter interface {
	Enqueue(ctx context.Context, job models.JobDescriptor) error
}

// SubmitParams carries every field of §6's POST /submit|/submit_url that
// isn't the media payload itself. JobID is always set equal to FileUID
// (spec §6: "job_id equal to file_uid").
type SubmitParams struct {
	ClientID      string
	FileUID       string
	Filename      string
	Provider      string
	Model         string
	APIKeys       string
	SourceLang    string
	TargetLang    string
	Prompt        string
	ReferenceText string
}

// Intake implements admission: MIME/model validation, job-scoped scratch
// storage, and enqueueing onto the Job Queue.
type Intake struct {
	Queue       JobSubmitter
	Cost        *cost.Calculator
	ScratchRoot string

	// fetchLimiter bounds how many SubmitURL downloads run concurrently;
	// errgroup.Group.Go blocks the caller until a slot is free once
	// SetLimit is set, making it a synchronous bounded dispatcher rather
	// than a fire-and-forget pool.
	fetchLimiter *errgroup.Group
}

// New constructs an Intake. maxConcurrentFetches bounds SubmitURL's
// simultaneous downloads; values <= 0 fall back to 4.
func New(queue JobSubmitter, costCalc *cost.Calculator, scratchRoot string, maxConcurrentFetches int) *Intake {
	if maxConcurrentFetches <= 0 {
		maxConcurrentFetches = 4
	}
	limiter := &errgroup.Group{}
	limiter.SetLimit(maxConcurrentFetches)
	return &Intake{Queue: queue, Cost: costCalc, ScratchRoot: scratchRoot, fetchLimiter: limiter}
}

// admit runs the validation and scratch-directory setup shared by Submit
// and SubmitURL, returning the job-scoped scratch directory to write the
// media file into.
func (i *Intake) admit(params SubmitParams) (string, error) {
	if params.FileUID == "" {
		return "", fmt.Errorf("intake: file_uid is required")
	}
	if params.ClientID == "" {
		return "", fmt.Errorf("intake: client_id is required")
	}
	if err := i.Cost.Validate(params.Model); err != nil {
		return "", fmt.Errorf("intake: %w", err)
	}

	scratchDir := filepath.Join(i.ScratchRoot, params.FileUID)
	if _, err := os.Stat(scratchDir); err == nil {
		// Write-once admission (spec §4.1): a job_id/file_uid is only ever
		// admitted once; a second submission under the same id is rejected
		// rather than overwriting scratch state a Worker may already own.
		return "", fmt.Errorf("intake: job %s was already submitted", params.FileUID)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("intake: stat scratch dir: %w", err)
	}

	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("intake: create scratch dir: %w", err)
	}
	return scratchDir, nil
}

func (i *Intake) descriptor(params SubmitParams, mediaPath string) models.JobDescriptor {
	return models.JobDescriptor{
		JobID:         params.FileUID,
		ClientID:      params.ClientID,
		FileUID:       params.FileUID,
		Filename:      params.Filename,
		MediaPath:     mediaPath,
		Provider:      params.Provider,
		Model:         params.Model,
		APIKeys:       params.APIKeys,
		SourceLang:    params.SourceLang,
		TargetLang:    params.TargetLang,
		Prompt:        params.Prompt,
		ReferenceText: params.ReferenceText,
	}
}

// Submit admits a directly-uploaded file (spec §6 POST /submit). mimeType
// is the multipart part's declared content type; content is the file body.
// Returns the job id (equal to params.FileUID).
func (i *Intake) Submit(ctx context.Context, params SubmitParams, mimeType string, content io.Reader) (string, error) {
	if !IsSupportedMIME(mimeType) {
		return "", fmt.Errorf("intake: unsupported file format %q", mimeType)
	}
	if params.Filename == "" {
		return "", fmt.Errorf("intake: filename is required")
	}

	scratchDir, err := i.admit(params)
	if err != nil {
		return "", err
	}

	mediaPath := filepath.Join(scratchDir, params.Filename)
	out, err := os.Create(mediaPath)
	if err != nil {
		return "", fmt.Errorf("intake: create media file: %w", err)
	}
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		return "", fmt.Errorf("intake: write media file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("intake: close media file: %w", err)
	}

	if err := i.Queue.Enqueue(ctx, i.descriptor(params, mediaPath)); err != nil {
		return "", fmt.Errorf("intake: enqueue: %w", err)
	}
	return params.FileUID, nil
}

// SubmitURL admits a job whose media lives at a remote URL (spec §6 POST
// /submit_url), fetching it under the bounded concurrency limiter before
// enqueueing.
func (i *Intake) SubmitURL(ctx context.Context, params SubmitParams, sourceURL string) (string, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("intake: invalid or unsupported url %q", sourceURL)
	}
	if params.Filename == "" {
		params.Filename = filepath.Base(parsed.Path)
	}
	if params.Filename == "" || params.Filename == "." || params.Filename == "/" {
		params.Filename = params.FileUID
	}

	scratchDir, err := i.admit(params)
	if err != nil {
		return "", err
	}
	mediaPath := filepath.Join(scratchDir, params.Filename)

	done := make(chan error, 1)
	i.fetchLimiter.Go(func() error {
		err := downloader.DownloadFile(ctx, sourceURL, mediaPath)
		done <- err
		return err
	})

	select {
	case err := <-done:
		if err != nil {
			os.RemoveAll(scratchDir)
			return "", fmt.Errorf("intake: fetch %s: %w", sourceURL, err)
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := i.Queue.Enqueue(ctx, i.descriptor(params, mediaPath)); err != nil {
		return "", fmt.Errorf("intake: enqueue: %w", err)
	}
	logger.Info("intake: submitted url job", "job_id", params.FileUID, "url", sourceURL)
	return params.FileUID, nil
}
