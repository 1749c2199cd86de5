package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"mediascribe/internal/config"
	"mediascribe/internal/cost"
	"mediascribe/internal/gateway"
	"mediascribe/internal/intake"
	"mediascribe/internal/joblog"
	"mediascribe/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeQueue stands in for the Job Queue: it records every admitted
// JobDescriptor instead of running a pipeline.
type fakeQueue struct {
	received []models.JobDescriptor
}

func (f *fakeQueue) Enqueue(ctx context.Context, job models.JobDescriptor) error {
	f.received = append(f.received, job)
	return nil
}

// fakeBus satisfies gateway.EventSubscriber without ever delivering events;
// the WebSocket route itself isn't exercised over plain HTTP here.
type fakeBus struct{}

func (fakeBus) Subscribe(clientID string) (<-chan models.ProgressEvent, func()) {
	return make(chan models.ProgressEvent), func() {}
}

func newTestStore(t *testing.T) *joblog.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.JobLogRow{}))
	return joblog.New(db)
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeQueue, *joblog.Store) {
	t.Helper()
	q := &fakeQueue{}
	costCalc := cost.New(cost.Book{"test-model": {InputText: 1, InputAudio: 1, OutputText: 1}})
	in := intake.New(q, costCalc, t.TempDir(), 0)
	store := newTestStore(t)
	gw := gateway.New(q, fakeBus{})
	handler := NewHandler(&config.Config{}, in, store, gw)
	return SetupRoutes(handler), q, store
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

// multipartWithMIME builds a multipart body whose file part carries an
// explicit Content-Type, since multipart.Writer.CreateFormFile always
// stamps application/octet-stream and the admission allow-list checks the
// part's declared MIME type.
func multipartWithMIME(t *testing.T, fields map[string]string, filename, mimeType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSubmitMultipartEnqueuesJob(t *testing.T) {
	router, q, _ := newTestRouter(t)

	body, contentType := multipartWithMIME(t, map[string]string{
		"client_id": "client-1",
		"file_uid":  "job-1",
		"model":     "test-model",
	}, "clip.mp3", "audio/mp3", []byte("audio-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, q.received, 1)
	require.Equal(t, "job-1", q.received[0].JobID)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "job-1", resp.JobID)
}

func TestSubmitRejectsUnsupportedMIME(t *testing.T) {
	router, q, _ := newTestRouter(t)

	body, contentType := multipartWithMIME(t, map[string]string{
		"client_id": "client-1",
		"file_uid":  "job-1b",
		"model":     "test-model",
	}, "clip.exe", "application/octet-stream", []byte("not audio"))

	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, q.received)
}

func TestSubmitURLRejectsMissingURL(t *testing.T) {
	router, q, _ := newTestRouter(t)

	payload, _ := json.Marshal(map[string]string{
		"client_id": "client-1",
		"file_uid":  "job-2",
		"model":     "test-model",
	})
	req := httptest.NewRequest(http.MethodPost, "/submit_url", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, q.received)
}

func TestStatusUnknownJobReturns404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusCompletedReturnsStoredResult(t *testing.T) {
	router, _, store := newTestRouter(t)

	result := models.JobResult{JobID: "job-3", Model: "test-model", Cost: 1.5}
	blob, err := json.Marshal(result)
	require.NoError(t, err)
	resultJSON := string(blob)

	require.NoError(t, store.Insert(context.Background(), &models.JobLogRow{
		JobID:      "job-3",
		Status:     models.StatusCompleted,
		ModelID:    "test-model",
		ResultJSON: &resultJSON,
	}))

	req := httptest.NewRequest(http.MethodGet, "/status/job-3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, models.StatusCompleted, resp.Status)
}

func TestStatusFailedReturnsErrorMessage(t *testing.T) {
	router, _, store := newTestRouter(t)

	errMsg := "probe: unsupported container"
	require.NoError(t, store.Insert(context.Background(), &models.JobLogRow{
		JobID:        "job-4",
		Status:       models.StatusFailed,
		ErrorMessage: &errMsg,
	}))

	req := httptest.NewRequest(http.MethodGet, "/status/job-4", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, models.StatusFailed, resp.Status)
	require.Equal(t, errMsg, resp.Result)
}
