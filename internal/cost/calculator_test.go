package cost

import (
	"testing"

	"mediascribe/internal/models"

	"github.com/stretchr/testify/require"
)

func testBook() Book {
	return Book{
		"gemini-2.5-flash": {InputText: 0.30, InputAudio: 1.00, OutputText: 2.50},
	}
}

func TestValidateRejectsUnknownModel(t *testing.T) {
	c := New(testBook())
	require.NoError(t, c.Validate("gemini-2.5-flash"))
	require.Error(t, c.Validate("not-a-real-model"))
}

func TestCalculateIsLinearInTokenCounts(t *testing.T) {
	c := New(testBook())
	items := []models.CostItem{
		{TaskName: "total_transcription", InputTokens: 1000, OutputTokens: 20, ContentType: models.ContentAudio},
	}

	result, err := c.Calculate("gemini-2.5-flash", items)
	require.NoError(t, err)

	doubled := []models.CostItem{
		{TaskName: "total_transcription", InputTokens: 2000, OutputTokens: 40, ContentType: models.ContentAudio},
	}
	resultDoubled, err := c.Calculate("gemini-2.5-flash", doubled)
	require.NoError(t, err)

	require.InDelta(t, result.Cost*2, resultDoubled.Cost, 1e-9)
}

func TestCalculateDistinguishesTextAndAudioInputPricing(t *testing.T) {
	c := New(testBook())
	audioItems := []models.CostItem{{TaskName: "t", InputTokens: 1_000_000, ContentType: models.ContentAudio}}
	textItems := []models.CostItem{{TaskName: "t", InputTokens: 1_000_000, ContentType: models.ContentText}}

	audioResult, err := c.Calculate("gemini-2.5-flash", audioItems)
	require.NoError(t, err)
	textResult, err := c.Calculate("gemini-2.5-flash", textItems)
	require.NoError(t, err)

	require.InDelta(t, 1.00, audioResult.Cost, 1e-9)
	require.InDelta(t, 0.30, textResult.Cost, 1e-9)
}

func TestCalculateUnknownModelErrors(t *testing.T) {
	c := New(testBook())
	_, err := c.Calculate("unknown-model", nil)
	require.Error(t, err)
}
