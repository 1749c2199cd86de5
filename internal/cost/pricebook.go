// Package cost implements the Cost Calculator component (spec §4.5, §9):
// a per-model price book and the linear cost formula over accumulated Cost
// Items.
package cost

import (
	"encoding/json"
	"fmt"
	"os"
)

// Price is a model's per-million-token rates in price-book currency units.
type Price struct {
	InputText  float64 `json:"input_text"`
	InputAudio float64 `json:"input_audio"`
	OutputText float64 `json:"output_text"`
}

// Book is a price book keyed by model id. Unlike the reference
// implementation's silent "default" fallback, this book has no default
// entry: an unknown model id is a Validate error, per spec §9's open
// question resolution (admission should reject unknown models).
type Book map[string]Price

// DefaultBook is the price book baked in as a starting point, mirroring the
// reference's MODEL_PRICES constant, extended with entries for the
// Anthropic and OpenAI providers this deployment also wires in.
func DefaultBook() Book {
	return Book{
		"gemini-2.5-flash": {InputText: 0.30, InputAudio: 1.00, OutputText: 2.50},
		"gemini-1.5-pro":   {InputText: 1.25, InputAudio: 2.50, OutputText: 10.00},
		"claude-3-5-sonnet-latest": {InputText: 3.00, InputAudio: 3.00, OutputText: 15.00},
		"gpt-4o-transcribe":        {InputText: 2.50, InputAudio: 6.00, OutputText: 10.00},
	}
}

// LoadBook loads a JSON-encoded price book override from path, falling back
// to DefaultBook when path is empty (spec §9: "a production deployment
// should load it from configuration").
func LoadBook(path string) (Book, error) {
	if path == "" {
		return DefaultBook(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cost: read price book %s: %w", path, err)
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("cost: parse price book %s: %w", path, err)
	}
	return book, nil
}
