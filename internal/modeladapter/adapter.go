// Package modeladapter implements the Model Adapter component (spec §4.5):
// a provider-agnostic Transcribe/Translate contract plus a constructor
// registry for the concrete providers wired into this deployment.
//
// This replaces the reference implementation's large capability-negotiation
// surface (ModelCapabilities, ParameterSchema, AdapterFactory.SelectBestModel
// scoring) with the two operations the spec actually contracts, per §9's
// redesign note: the registry holds provider constructors, not a global
// singleton map of pre-built adapter instances the teacher's ModelRegistry
// used for its much larger surface of transcription/diarization/composite
// adapters.
package modeladapter

import "context"

// Blob is a remote handle the Adapter created while preparing input, tracked
// so Release can clean it up (spec §4.5 "Side effect").
type Blob struct {
	Provider string
	Handle   string
}

// TranscriptionResult is the outcome of Transcribe.
type TranscriptionResult struct {
	Success      bool
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// TranslationResult is the outcome of Translate.
type TranslationResult struct {
	Success      bool
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Adapter abstracts one speech provider behind the two operations the
// Worker drives (spec §4.5).
type Adapter interface {
	// Transcribe uploads mediaPath, awaits server-side processing to a
	// terminal state, invokes generation, and returns the transcript. On a
	// provider-side safety block it returns success=false with descriptive
	// text and any counted prompt tokens, not an error.
	Transcribe(ctx context.Context, mediaPath, prompt string) (TranscriptionResult, error)

	// Translate translates text, returning the same token-count shape.
	Translate(ctx context.Context, text, prompt string) (TranslationResult, error)

	// Release deletes every remote blob handle this adapter created. The
	// Worker calls it in CLEANUP regardless of job outcome.
	Release(ctx context.Context) error
}

// Config carries the credentials and model id an adapter constructor needs.
// Providers ignore fields they don't use.
type Config struct {
	Model  string
	APIKey string
}
