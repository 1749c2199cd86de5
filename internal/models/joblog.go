package models

import "time"

// JobStatus is the lifecycle state of a Job Log Row. Transitions only ever
// move forward: QUEUED -> PROCESSING -> {COMPLETED, FAILED}. Terminal states
// are immutable.
type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// JobLogRow is the durable lifecycle record for one job, keyed by JobID.
// Inserted at LOG_OPEN, field-wise updated at every subsequent stage. Since
// each job has exactly one owning Worker, concurrent updates to the same row
// do not occur by construction.
type JobLogRow struct {
	JobID                 string    `json:"job_id" gorm:"primaryKey;type:varchar(36)"`
	Status                JobStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	OriginalFilename      string    `json:"original_filename" gorm:"type:text;not null"`
	ModelID               string    `json:"model_id" gorm:"type:varchar(100);not null"`
	SourceLanguage        string    `json:"source_language" gorm:"type:varchar(20)"`
	AudioDurationSeconds  float64   `json:"audio_duration_seconds"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
	TotalTokens           int       `json:"total_tokens"`
	Cost                  float64   `json:"cost"`
	ErrorMessage          *string   `json:"error_message,omitempty" gorm:"type:text"`
	// ResultJSON holds the marshaled JobResult (spec §6's "final payload on
	// success") once a job reaches COMPLETED. The literal Job Log Row field
	// list (§3) doesn't include it, but without it GET /status/{job_id}
	// could only ever return the final payload once, via the WS push, which
	// would contradict §6 describing it as pollable over HTTP too.
	ResultJSON *string   `json:"-" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
