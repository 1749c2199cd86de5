package converter

import (
	"testing"

	"mediascribe/internal/models"

	"github.com/stretchr/testify/require"
)

func TestParseLRCStripsSpeakerLabel(t *testing.T) {
	lines := ParseLRC("[00:01.23] Speaker A: Hello world.\n[00:04.56] Goodbye.")
	require.Len(t, lines, 2)
	require.Equal(t, "Hello world.", lines[0].Text)
	require.InDelta(t, 1.23, lines[0].T, 1e-9)
	require.Equal(t, "Goodbye.", lines[1].Text)
}

func TestParseLRCTolerates3DigitFraction(t *testing.T) {
	lines := ParseLRC("[00:01.230] Hi")
	require.Len(t, lines, 1)
	require.InDelta(t, 1.23, lines[0].T, 1e-9)
}

func TestParseLRCSkipsBadLines(t *testing.T) {
	lines := ParseLRC("not a line\n[00:01.00] ok")
	require.Len(t, lines, 1)
	require.Equal(t, "ok", lines[0].Text)
}

func TestRoundTripPreservesTextAndOrder(t *testing.T) {
	lrc := "[00:01.23] Hello world.\n[00:04.56] Goodbye."
	doc := FromLRC(lrc)
	require.Equal(t, "Hello world.\nGoodbye.", doc.TXT)

	// Re-parsing the rendered TXT-adjacent LRC preserves line order/text.
	lines := ParseLRC(doc.LRC)
	require.Len(t, lines, 2)
	require.Equal(t, "Hello world.", lines[0].Text)
	require.Equal(t, "Goodbye.", lines[1].Text)
}

func TestToSRTEndTimeIsNextLineStart(t *testing.T) {
	lines := []models.LRCLine{{T: 1, Text: "a"}, {T: 4, Text: "b"}}
	srt := ToSRT(lines)
	require.Contains(t, srt, "00:00:01,000 --> 00:00:04,000")
	require.Contains(t, srt, "00:00:04,000 --> 00:00:09,000") // last line: +5s
}

func TestToVTTHasHeaderAndDotSeparator(t *testing.T) {
	lines := []models.LRCLine{{T: 1.5, Text: "a"}}
	vtt := ToVTT(lines)
	require.Contains(t, vtt, "WEBVTT\n\n")
	require.Contains(t, vtt, "00:00:01.500 --> 00:00:06.500")
}

func TestEmptyLRCReturnsEmptyDocument(t *testing.T) {
	doc := FromLRC("")
	require.Equal(t, models.SubtitleDocument{}, doc)
}
