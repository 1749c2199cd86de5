// Package converter implements the Format Converter component (spec §4.6):
// parsing LRC text, rendering SRT/VTT/TXT, and remapping timestamps across
// segment boundaries.
package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mediascribe/internal/models"
)

// lineRe matches one LRC line: "[MM:SS.ff]" or "[MM:SS.fff]" followed by the
// line's free text. Tolerant of 2- or 3-digit fractional seconds.
var lineRe = regexp.MustCompile(`^\[(\d{2}):(\d{2})\.(\d{2,3})\](.*)$`)

// speakerLabelRe strips a leading "Speaker X: " prefix the model sometimes
// emits when a diarization-style prompt was used.
var speakerLabelRe = regexp.MustCompile(`^\s*Speaker\s+[A-Z]:\s*`)

// ParseLRC parses LRC text into an ordered list of lines. Lines that don't
// match the expected shape are skipped silently rather than failing the
// whole parse.
func ParseLRC(lrcText string) []models.LRCLine {
	var lines []models.LRCLine
	if strings.TrimSpace(lrcText) == "" {
		return lines
	}

	for _, raw := range strings.Split(strings.TrimSpace(lrcText), "\n") {
		m := lineRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		frac, _ := strconv.ParseFloat("0."+m[3], 64)
		t := float64(minutes)*60 + float64(seconds) + frac
		text := speakerLabelRe.ReplaceAllString(strings.TrimSpace(m[4]), "")
		lines = append(lines, models.LRCLine{T: t, Text: text})
	}
	return lines
}

// FormatLRCTime renders seconds as "[MM:SS.ff]" with 2-digit hundredths, the
// format the reference remap/shift math produces.
func FormatLRCTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds / 60)
	secs := seconds - float64(minutes)*60
	return fmt.Sprintf("[%02d:%05.2f]", minutes, secs)
}

// RenderLRC renders parsed lines back to LRC text.
func RenderLRC(lines []models.LRCLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = FormatLRCTime(l.T) + " " + l.Text
	}
	return strings.Join(parts, "\n")
}

// seconds to "HH:MM:SS<sep>mmm"
func formatClockTime(seconds float64, sep string) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	secs := totalMillis / 1000
	millis := totalMillis - secs*1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, sep, millis)
}

// endTime returns the end time for line i: the start of line i+1, or
// lines[i].T+5.0 if i is the last line.
func endTime(lines []models.LRCLine, i int) float64 {
	if i+1 < len(lines) {
		return lines[i+1].T
	}
	return lines[i].T + 5.0
}

// ToSRT renders parsed lines as an SRT document.
func ToSRT(lines []models.LRCLine) string {
	var b strings.Builder
	for i, l := range lines {
		start := formatClockTime(l.T, ",")
		end := formatClockTime(endTime(lines, i), ",")
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, start, end, l.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToVTT renders parsed lines as a WEBVTT document.
func ToVTT(lines []models.LRCLine) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, l := range lines {
		start := formatClockTime(l.T, ".")
		end := formatClockTime(endTime(lines, i), ".")
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", start, end, l.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToTXT renders parsed lines as plain text, one line of text per line.
func ToTXT(lines []models.LRCLine) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// FromLRC converts raw LRC text into the full four-format SubtitleDocument.
func FromLRC(lrcText string) models.SubtitleDocument {
	if strings.TrimSpace(lrcText) == "" {
		return models.SubtitleDocument{}
	}

	lines := ParseLRC(lrcText)
	if len(lines) == 0 {
		return models.SubtitleDocument{LRC: lrcText}
	}

	return models.SubtitleDocument{
		LRC: lrcText,
		SRT: ToSRT(lines),
		VTT: ToVTT(lines),
		TXT: ToTXT(lines),
	}
}
