package modeladapter

import (
	"context"
	"fmt"
	"os"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements Adapter for OpenAI's transcription and chat
// models, grounded on the reference openai provider's client construction
// and param building style.
type OpenAIAdapter struct {
	client oai.Client
	model  string
}

// NewOpenAIAdapter is the Registry constructor for provider id "openai".
func NewOpenAIAdapter(cfg Config) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("modeladapter: openai: api key required")
	}
	client := oai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAIAdapter{client: client, model: cfg.Model}, nil
}

// Transcribe implements Adapter using the audio transcription endpoint.
// OpenAI's transcription API is single-shot (no separate upload/poll step),
// so this folds the spec's "upload, await terminal state, generate" shape
// into one call.
func (a *OpenAIAdapter) Transcribe(ctx context.Context, mediaPath, prompt string) (TranscriptionResult, error) {
	f, err := os.Open(mediaPath)
	if err != nil {
		return TranscriptionResult{}, fmt.Errorf("modeladapter: openai: open media: %w", err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(a.model),
		File:  f,
	}
	if prompt != "" {
		params.Prompt = oai.String(prompt)
	}

	transcription, err := a.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return TranscriptionResult{}, fmt.Errorf("modeladapter: openai: transcribe: %w", err)
	}

	result := TranscriptionResult{Success: true, Text: transcription.Text}
	result.InputTokens = int(transcription.Usage.InputTokens)
	result.OutputTokens = int(transcription.Usage.OutputTokens)
	result.TotalTokens = result.InputTokens + result.OutputTokens
	return result, nil
}

// Translate implements Adapter over the chat completions endpoint.
func (a *OpenAIAdapter) Translate(ctx context.Context, text, prompt string) (TranslationResult, error) {
	completion, err := a.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(prompt + "\n\n" + text),
		},
	})
	if err != nil {
		return TranslationResult{}, fmt.Errorf("modeladapter: openai: translate: %w", err)
	}

	result := TranslationResult{
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:  int(completion.Usage.TotalTokens),
	}

	if len(completion.Choices) == 0 {
		result.Success = false
		result.Text = "no choices returned (likely a provider-side content block)"
		return result, nil
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "content_filter" {
		result.Success = false
		result.Text = "blocked by provider content filter"
		return result, nil
	}

	result.Success = true
	result.Text = choice.Message.Content
	return result, nil
}

// Release is a no-op: OpenAI's transcription and chat APIs hold no
// server-side blob handles to clean up.
func (a *OpenAIAdapter) Release(ctx context.Context) error {
	return nil
}
