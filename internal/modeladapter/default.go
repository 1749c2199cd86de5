package modeladapter

// NewDefaultRegistry returns a Registry with every provider this deployment
// wires in registered under its provider id.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("google", NewGoogleAdapter)
	r.Register("anthropic", NewAnthropicAdapter)
	r.Register("openai", NewOpenAIAdapter)
	return r
}
