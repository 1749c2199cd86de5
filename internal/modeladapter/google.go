package modeladapter

import (
	"context"
	"fmt"
	"sync"

	"mediascribe/pkg/logger"

	"google.golang.org/genai"
)

// GoogleAdapter transcribes and translates via the Gemini API, grounded on
// the unified genai SDK usage in the reference llm client (file upload +
// Models.GenerateContent, UsageMetadata for token accounting).
type GoogleAdapter struct {
	client *genai.Client
	model  string

	mu     sync.Mutex
	blobs  []Blob
}

// NewGoogleAdapter is the Registry constructor for provider id "google".
func NewGoogleAdapter(cfg Config) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("modeladapter: google: api key required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("modeladapter: google: new client: %w", err)
	}
	return &GoogleAdapter{client: client, model: cfg.Model}, nil
}

func (a *GoogleAdapter) uploadAndAwaitActive(ctx context.Context, mediaPath string) (*genai.File, error) {
	file, err := a.client.Files.UploadFromPath(ctx, mediaPath, nil)
	if err != nil {
		return nil, fmt.Errorf("modeladapter: google: upload: %w", err)
	}

	a.mu.Lock()
	a.blobs = append(a.blobs, Blob{Provider: "google", Handle: file.Name})
	a.mu.Unlock()

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		file, err = a.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("modeladapter: google: poll upload: %w", err)
		}
	}
	if file.State != genai.FileStateActive {
		return nil, fmt.Errorf("modeladapter: google: upload reached terminal state %s", file.State)
	}
	return file, nil
}

// Transcribe implements Adapter.
func (a *GoogleAdapter) Transcribe(ctx context.Context, mediaPath, prompt string) (TranscriptionResult, error) {
	file, err := a.uploadAndAwaitActive(ctx, mediaPath)
	if err != nil {
		return TranscriptionResult{}, err
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			genai.NewPartFromText(prompt),
		}},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return TranscriptionResult{}, fmt.Errorf("modeladapter: google: generate: %w", err)
	}

	return resultFromGenerateResponse(resp), nil
}

// Translate implements Adapter.
func (a *GoogleAdapter) Translate(ctx context.Context, text, prompt string) (TranslationResult, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(prompt + "\n\n" + text)}},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("modeladapter: google: translate: %w", err)
	}

	tr := resultFromGenerateResponse(resp)
	return TranslationResult{
		Success:      tr.Success,
		Text:         tr.Text,
		InputTokens:  tr.InputTokens,
		OutputTokens: tr.OutputTokens,
		TotalTokens:  tr.TotalTokens,
	}, nil
}

func resultFromGenerateResponse(resp *genai.GenerateContentResponse) TranscriptionResult {
	var result TranscriptionResult
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	if len(resp.Candidates) == 0 {
		result.Success = false
		result.Text = "no candidates returned (likely a provider-side content block)"
		return result
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		result.Success = false
		result.Text = fmt.Sprintf("blocked by provider safety filter: %s", cand.FinishReason)
		return result
	}

	result.Success = true
	result.Text = resp.Text()
	return result
}

// Release deletes every uploaded file this adapter created (spec §4.5).
func (a *GoogleAdapter) Release(ctx context.Context) error {
	a.mu.Lock()
	blobs := a.blobs
	a.blobs = nil
	a.mu.Unlock()

	var firstErr error
	for _, b := range blobs {
		if _, err := a.client.Files.Delete(ctx, b.Handle, nil); err != nil {
			logger.Warn("modeladapter: google: release failed", "handle", b.Handle, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
