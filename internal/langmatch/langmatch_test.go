package langmatch

import "testing"

func TestSamePrimarySubtagIgnoresRegion(t *testing.T) {
	if !SamePrimarySubtag("en", "en-GB") {
		t.Fatal("expected en == en-GB")
	}
	if !SamePrimarySubtag("en-US", "en-GB") {
		t.Fatal("expected en-US == en-GB")
	}
}

func TestSamePrimarySubtagRejectsDifferentLanguages(t *testing.T) {
	if SamePrimarySubtag("en", "fr") {
		t.Fatal("expected en != fr")
	}
}

func TestSamePrimarySubtagRejectsUnparsableTags(t *testing.T) {
	if SamePrimarySubtag("not-a-tag-!!!", "en") {
		t.Fatal("expected unparsable tag to never match")
	}
}

func TestDetectSourceLanguageVotesOnStopwords(t *testing.T) {
	if got := DetectSourceLanguage("the cat and the dog is in the house"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
	if got := DetectSourceLanguage("le chat et la souris sont dans la maison"); got != "fr" {
		t.Fatalf("expected fr, got %q", got)
	}
}

func TestDetectSourceLanguageDetectsCJKScripts(t *testing.T) {
	if got := DetectSourceLanguage("これは日本語のテキストです"); got != "ja" {
		t.Fatalf("expected ja, got %q", got)
	}
	if got := DetectSourceLanguage("이것은 한국어 텍스트입니다"); got != "ko" {
		t.Fatalf("expected ko, got %q", got)
	}
}

func TestDetectSourceLanguageReturnsEmptyWhenNoSignal(t *testing.T) {
	if got := DetectSourceLanguage("xyzzy qux plugh"); got != "" {
		t.Fatalf("expected no detection, got %q", got)
	}
}
