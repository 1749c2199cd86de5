package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mediascribe/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	received []models.JobDescriptor
	err      error
}

func (f *fakeSubmitter) Enqueue(ctx context.Context, job models.JobDescriptor) error {
	f.received = append(f.received, job)
	return f.err
}

type fakeBus struct {
	ch chan models.ProgressEvent
}

func (f *fakeBus) Subscribe(clientID string) (<-chan models.ProgressEvent, func()) {
	return f.ch, func() {}
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestGatewayEnqueuesFirstFrameAndRelaysEvents(t *testing.T) {
	submitter := &fakeSubmitter{}
	bus := &fakeBus{ch: make(chan models.ProgressEvent, 4)}
	gw := New(submitter, bus)

	server := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	defer server.Close()

	conn := dialWS(t, server)
	defer conn.Close()

	job := models.JobDescriptor{JobID: "j1", ClientID: "c1", Filename: "a.mp3"}
	require.NoError(t, conn.WriteJSON(job))

	bus.ch <- models.ProgressEvent{ClientID: "c1", JobID: "j1", StageCode: models.StageProcessing, StageText: "vad"}
	bus.ch <- models.ProgressEvent{ClientID: "c1", JobID: "j1", StageCode: models.StageCompleted}

	var lastEvent models.ProgressEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.ReadJSON(&lastEvent))
	}
	require.Equal(t, models.StageCompleted, lastEvent.StageCode)

	require.Len(t, submitter.received, 1)
	require.Equal(t, "c1", submitter.received[0].ClientID)
}

func TestGatewayRejectsMissingClientID(t *testing.T) {
	submitter := &fakeSubmitter{}
	bus := &fakeBus{ch: make(chan models.ProgressEvent, 1)}
	gw := New(submitter, bus)

	server := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	defer server.Close()

	conn := dialWS(t, server)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.JobDescriptor{JobID: "j1"}))

	var event models.ProgressEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, models.StageFailed, event.StageCode)
	require.Empty(t, submitter.received)
}
