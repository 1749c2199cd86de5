package models

// JobDescriptor is the unit of work handed from the Intake API onto the Job
// Queue and, unmodified, to the Worker that picks it up. It carries
// everything the Worker needs to drive one job through the pipeline without
// consulting any other store.
type JobDescriptor struct {
	JobID      string `json:"job_id"`
	ClientID   string `json:"client_id"`
	FileUID    string `json:"file_uid"`
	Filename   string `json:"filename"`
	MediaPath  string `json:"media_path"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	APIKeys    string `json:"api_keys"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang,omitempty"`
	Prompt     string `json:"prompt,omitempty"`
	// ReferenceText, when set, turns PROMPT_PREP into alignment-prompt mode
	// (§4.3 step 4): the model is asked to time-align this verbatim text
	// rather than transcribe freely.
	ReferenceText string `json:"reference_text,omitempty"`
	// SpeechIntervals, when set, marks MediaPath as a speech-only
	// concatenation and tells the Worker's REMAP stage (§4.3 step 6) how to
	// rewrite timestamps back onto the original timeline.
	SpeechIntervals []SpeechInterval `json:"speech_intervals,omitempty"`
}

// SpeechInterval is an ordered, non-overlapping [start, end) span of speech
// activity in seconds of some timeline. Consecutive intervals i, j satisfy
// i.End <= j.Start.
type SpeechInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (s SpeechInterval) Duration() float64 {
	return s.End - s.Start
}

// LRCLine is one parsed line of an LRC document: a timestamp in seconds and
// its trailing free text, stripped of any leading speaker label.
type LRCLine struct {
	T    float64 `json:"t"`
	Text string  `json:"text"`
}

// SubtitleDocument bundles all four renderings of one transcript. All four
// fields are always present, possibly empty.
type SubtitleDocument struct {
	LRC string `json:"lrc"`
	SRT string `json:"srt"`
	VTT string `json:"vtt"`
	TXT string `json:"txt"`
}

// StageCode is the terminal/non-terminal classification carried on every
// Progress Event.
type StageCode string

const (
	StageQueued     StageCode = "QUEUED"
	StageProcessing StageCode = "PROCESSING"
	StageCompleted  StageCode = "COMPLETED"
	StageFailed     StageCode = "FAILED"
)

// ProgressEvent is published by the Worker onto the Event Bus and relayed by
// the Gateway to the session matching ClientID. Events for a given JobID are
// totally ordered by publication time.
type ProgressEvent struct {
	JobID     string      `json:"job_id"`
	ClientID  string      `json:"client_id"`
	StageCode StageCode   `json:"stage_code"`
	StageText string      `json:"stage_text"`
	Result    interface{} `json:"result,omitempty"`
}

// ContentType distinguishes text and audio token pricing for a Cost Item.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentAudio ContentType = "audio"
)

// CostItem is one billable line item accumulated by a job: a named task
// (e.g. "total_transcription", "total_translation") against a model,
// carrying separate input/output token counts.
type CostItem struct {
	TaskName     string      `json:"task_name"`
	Model        string      `json:"model"`
	InputTokens  int         `json:"input_tokens"`
	OutputTokens int         `json:"output_tokens"`
	ContentType  ContentType `json:"content_type"`
}

// CostBreakdownEntry is a priced CostItem as it appears in the final result
// payload (§6).
type CostBreakdownEntry struct {
	TaskName     string      `json:"task_name"`
	InputTokens  int         `json:"input_tokens"`
	OutputTokens int         `json:"output_tokens"`
	ContentType  ContentType `json:"content_type"`
	Cost         float64     `json:"cost"`
}

// JobResult is the full response payload described in §6, pushed to the
// Gateway on COMPLETED and returned by GET /status/{job_id}.
type JobResult struct {
	JobID                 string               `json:"job_id"`
	Transcripts           SubtitleDocument     `json:"transcripts"`
	TokensUsed            int                  `json:"tokens_used"`
	Cost                  float64              `json:"cost"`
	Model                 string               `json:"model"`
	SourceLanguage        string               `json:"source_language"`
	ProcessingTimeSeconds float64              `json:"processing_time_seconds"`
	AudioDurationSeconds  float64              `json:"audio_duration_seconds"`
	CostBreakdown         []CostBreakdownEntry `json:"cost_breakdown"`
}
