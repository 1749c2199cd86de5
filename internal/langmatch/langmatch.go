// Package langmatch implements the two small language helpers the Worker's
// TRANSLATE stage needs (spec §4.3 step 7): comparing a source and target
// language tag at primary-subtag granularity, and guessing a source language
// when the job descriptor didn't set one.
//
// The reference implementation reaches for Python's langdetect for the
// second job. No language-identification library appears anywhere in the
// retrieved corpus, so DetectSourceLanguage is a deliberately narrow
// stopword/script heuristic rather than a port of langdetect's n-gram
// model — it is documented as such here rather than disguised as a general
// solution.
package langmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// SamePrimarySubtag reports whether a and b denote the same primary
// language subtag (e.g. "en" and "en-GB" are equal; "en" and "fr" are not).
// An unparsable tag never matches anything, including itself.
func SamePrimarySubtag(a, b string) bool {
	ta, err := language.Parse(a)
	if err != nil {
		return false
	}
	tb, err := language.Parse(b)
	if err != nil {
		return false
	}
	baseA, confA := ta.Base()
	baseB, confB := tb.Base()
	if confA == language.No || confB == language.No {
		return false
	}
	return baseA == baseB
}

// stopwords maps a small closed set of common function words to their
// language's tag. Entries are chosen to be unambiguous across the set: each
// word appears in exactly one language's list.
var stopwords = map[string]string{
	"the": "en", "and": "en", "is": "en", "of": "en", "to": "en", "in": "en",
	"le": "fr", "la": "fr", "les": "fr", "et": "fr", "des": "fr", "une": "fr",
	"der": "de", "die": "de", "und": "de", "das": "de", "ist": "de", "nicht": "de",
	"el": "es", "los": "es", "las": "es", "que": "es", "para": "es", "con": "es",
	"il": "it", "che": "it", "non": "it", "per": "it", "una": "it", "sono": "it",
}

// DetectSourceLanguage guesses text's language from a small stopword vote
// plus a script check for CJK and Japanese kana; it returns "" when no
// signal clears the bar. This is a narrow heuristic for the common case
// where a job omits source_lang, not a general language identifier: it only
// discriminates among the handful of languages named above plus a few
// scripts, and falls silently back to "" otherwise rather than guessing.
func DetectSourceLanguage(text string) string {
	if script := detectScript(text); script != "" {
		return script
	}

	votes := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if lang, ok := stopwords[word]; ok {
			votes[lang]++
		}
	}

	best, bestCount := "", 0
	for lang, count := range votes {
		if count > bestCount {
			best, bestCount = lang, count
		}
	}
	if bestCount == 0 {
		return ""
	}
	return best
}

// detectScript distinguishes CJK/Japanese text by Unicode range, since no
// stopword vote is meaningful for languages that don't tokenize on spaces.
func detectScript(text string) string {
	var han, kana, hangul, total int
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		total++
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.In(r, unicode.Han):
			han++
		case unicode.In(r, unicode.Hangul):
			hangul++
		}
	}
	if total == 0 {
		return ""
	}
	switch {
	case kana > total/4:
		return "ja"
	case hangul > total/4:
		return "ko"
	case han > total/4:
		return "zh"
	default:
		return ""
	}
}
