package modeladapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct{ providerID string }

func (f *fakeAdapter) Transcribe(ctx context.Context, mediaPath, prompt string) (TranscriptionResult, error) {
	return TranscriptionResult{Success: true, Text: f.providerID}, nil
}
func (f *fakeAdapter) Translate(ctx context.Context, text, prompt string) (TranslationResult, error) {
	return TranslationResult{Success: true, Text: f.providerID}, nil
}
func (f *fakeAdapter) Release(ctx context.Context) error { return nil }

func TestRegistryBuildsRegisteredProvider(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(cfg Config) (Adapter, error) {
		return &fakeAdapter{providerID: "fake:" + cfg.Model}, nil
	})

	adapter, err := r.Build("fake", Config{Model: "v1"})
	require.NoError(t, err)

	result, err := adapter.Transcribe(context.Background(), "unused", "unused")
	require.NoError(t, err)
	require.Equal(t, "fake:v1", result.Text)
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("nope", Config{})
	require.Error(t, err)
}

func TestProvidersReturnsSortedIDs(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func(cfg Config) (Adapter, error) { return nil, nil })
	r.Register("a", func(cfg Config) (Adapter, error) { return nil, nil })
	require.Equal(t, []string{"a", "b"}, r.Providers())
}

func TestDefaultRegistryRegistersAllThreeProviders(t *testing.T) {
	r := NewDefaultRegistry()
	require.Equal(t, []string{"anthropic", "google", "openai"}, r.Providers())
}
