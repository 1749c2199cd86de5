package cost

import (
	"fmt"

	"mediascribe/internal/models"
)

// Calculator prices accumulated Cost Items against a Book.
type Calculator struct {
	book Book
}

// New wraps a price book as a Calculator.
func New(book Book) *Calculator {
	return &Calculator{book: book}
}

// Validate rejects a model id that has no price book entry, the admission-
// time check spec §9's open question calls for instead of a silent
// default-row fallback.
func (c *Calculator) Validate(modelID string) error {
	if _, ok := c.book[modelID]; !ok {
		return fmt.Errorf("cost: no price book entry for model %q", modelID)
	}
	return nil
}

// Result is the priced outcome of a set of Cost Items.
type Result struct {
	TotalTokens int
	Cost        float64
	Breakdown   []models.CostBreakdownEntry
}

// Calculate sums cost across items for model, linear in input/output token
// counts per content type (spec §3 "Cost Item"). Doubling every item's
// token counts doubles the returned cost exactly.
func (c *Calculator) Calculate(modelID string, items []models.CostItem) (Result, error) {
	price, ok := c.book[modelID]
	if !ok {
		return Result{}, fmt.Errorf("cost: no price book entry for model %q", modelID)
	}

	var result Result
	result.Breakdown = make([]models.CostBreakdownEntry, 0, len(items))

	for _, item := range items {
		inputRate := price.InputText
		if item.ContentType == models.ContentAudio {
			inputRate = price.InputAudio
		}

		itemCost := (float64(item.InputTokens)/1_000_000)*inputRate +
			(float64(item.OutputTokens)/1_000_000)*price.OutputText

		result.TotalTokens += item.InputTokens + item.OutputTokens
		result.Cost += itemCost
		result.Breakdown = append(result.Breakdown, models.CostBreakdownEntry{
			TaskName:     item.TaskName,
			InputTokens:  item.InputTokens,
			OutputTokens: item.OutputTokens,
			ContentType:  item.ContentType,
			Cost:         itemCost,
		})
	}

	return result, nil
}
