// Package api implements the HTTP/WebSocket surface of spec §6: POST
// /submit, POST /submit_url, GET /status/{job_id}, and WS /ws/{job_id}.
//
// Grounded on the teacher's internal/api/handlers.go: a thin Handler struct
// holding its collaborators, one gin.HandlerFunc per route, multipart form
// binding via c.FormFile/c.PostForm the same way the teacher's UploadAudio
// does it, and a uniform {"error": "..."} JSON error body on failure.
package api

import (
	"encoding/json"
	"net/http"

	"mediascribe/internal/config"
	"mediascribe/internal/gateway"
	"mediascribe/internal/intake"
	"mediascribe/internal/joblog"
	"mediascribe/internal/models"
	"mediascribe/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler bundles every component the HTTP surface delegates to.
type Handler struct {
	config  *config.Config
	intake  *intake.Intake
	jobLog  *joblog.Store
	gateway *gateway.Gateway
}

// NewHandler constructs a Handler.
func NewHandler(cfg *config.Config, in *intake.Intake, jobLog *joblog.Store, gw *gateway.Gateway) *Handler {
	return &Handler{config: cfg, intake: in, jobLog: jobLog, gateway: gw}
}

// HealthCheck reports liveness; used by deployment probes.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitResponse is the body returned by both POST /submit and POST
// /submit_url (spec §6: "Response: {job_id, message} with job_id equal to
// file_uid").
type submitResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

func (h *Handler) resolveAPIKeys(provider, submitted string) string {
	if submitted != "" {
		return submitted
	}
	switch provider {
	case "google":
		return h.config.GoogleAPIKey
	case "anthropic":
		return h.config.AnthropicAPIKey
	case "openai":
		return h.config.OpenAIAPIKey
	default:
		return ""
	}
}

func paramsFromForm(c *gin.Context) intake.SubmitParams {
	return intake.SubmitParams{
		ClientID:      c.PostForm("client_id"),
		FileUID:       c.PostForm("file_uid"),
		Provider:      c.PostForm("provider"),
		Model:         c.PostForm("model"),
		SourceLang:    c.PostForm("source_lang"),
		TargetLang:    c.PostForm("target_lang"),
		Prompt:        c.PostForm("prompt"),
		ReferenceText: c.PostForm("reference_text"),
	}
}

// Submit implements POST /submit (spec §6): a multipart upload admitted
// directly into job-scoped scratch storage.
func (h *Handler) Submit(c *gin.Context) {
	params := paramsFromForm(c)
	params.APIKeys = h.resolveAPIKeys(params.Provider, c.PostForm("api_keys"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required: " + err.Error()})
		return
	}
	params.Filename = fileHeader.Filename

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	jobID, err := h.intake.Submit(c.Request.Context(), params, mimeType, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, submitResponse{JobID: jobID, Message: "submitted"})
}

// submitURLRequest is the JSON body of POST /submit_url: spec §6's "same
// fields plus url".
type submitURLRequest struct {
	URL           string `json:"url"`
	ClientID      string `json:"client_id"`
	FileUID       string `json:"file_uid"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	APIKeys       string `json:"api_keys"`
	SourceLang    string `json:"source_lang"`
	TargetLang    string `json:"target_lang"`
	Prompt        string `json:"prompt"`
	ReferenceText string `json:"reference_text"`
}

// SubmitURL implements POST /submit_url (spec §6): admits a job whose media
// is fetched from a remote URL rather than uploaded directly.
func (h *Handler) SubmitURL(c *gin.Context) {
	var req submitURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	params := intake.SubmitParams{
		ClientID:      req.ClientID,
		FileUID:       req.FileUID,
		Provider:      req.Provider,
		Model:         req.Model,
		APIKeys:       h.resolveAPIKeys(req.Provider, req.APIKeys),
		SourceLang:    req.SourceLang,
		TargetLang:    req.TargetLang,
		Prompt:        req.Prompt,
		ReferenceText: req.ReferenceText,
	}

	jobID, err := h.intake.SubmitURL(c.Request.Context(), params, req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, submitResponse{JobID: jobID, Message: "submitted"})
}

// statusResponse is GET /status/{job_id}'s body (spec §6): `result` carries
// the final payload on success, or the error string on failure.
type statusResponse struct {
	JobID  string           `json:"job_id"`
	Status models.JobStatus `json:"status"`
	Result interface{}      `json:"result,omitempty"`
}

// Status implements GET /status/{job_id}.
func (h *Handler) Status(c *gin.Context) {
	jobID := c.Param("job_id")
	row, err := h.jobLog.Get(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job_id"})
		return
	}

	resp := statusResponse{JobID: row.JobID, Status: row.Status}
	switch row.Status {
	case models.StatusCompleted:
		resp.Result = resultFromRow(row)
	case models.StatusFailed:
		if row.ErrorMessage != nil {
			resp.Result = *row.ErrorMessage
		}
	}
	c.JSON(http.StatusOK, resp)
}

// resultFromRow reconstructs the Final Result Payload (spec §6) from the Job
// Log Row's stored ResultJSON. A row somehow marked COMPLETED without one
// (e.g. a pre-upgrade row) degrades to the summary fields the row does
// carry, rather than failing the whole status request.
func resultFromRow(row *models.JobLogRow) interface{} {
	if row.ResultJSON == nil {
		return models.JobResult{
			JobID:                 row.JobID,
			Model:                 row.ModelID,
			SourceLanguage:        row.SourceLanguage,
			TokensUsed:            row.TotalTokens,
			Cost:                  row.Cost,
			ProcessingTimeSeconds: row.ProcessingTimeSeconds,
			AudioDurationSeconds:  row.AudioDurationSeconds,
		}
	}
	var result models.JobResult
	if err := json.Unmarshal([]byte(*row.ResultJSON), &result); err != nil {
		logger.Warn("api: failed to unmarshal stored result payload", "job_id", row.JobID, "error", err)
		return nil
	}
	return result
}

// WebSocket implements WS /ws/{job_id} (spec §4.7): the Gateway owns the
// entire upgrade/submit/relay session.
func (h *Handler) WebSocket(c *gin.Context) {
	h.gateway.HandleWS(c.Writer, c.Request)
}
