// Package gateway implements the Gateway half of the Event Bus + Gateway
// component (spec §4.7): one WebSocket session per client id, relaying
// Progress Events from the Event Bus back to the originating client.
//
// Grounded on the gorilla/websocket upgrade/read-loop/write-JSON shape used
// by the reference's agent WebSocket handler, adapted from a request/response
// RPC loop to a one-shot-submit-then-stream session per spec §4.7: the
// client sends exactly one frame (its JobDescriptor), the Gateway hands it
// to the Job Queue, then relays events until a terminal stage or
// disconnect.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"mediascribe/internal/models"
	"mediascribe/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	readLimitBytes = 1 << 20 // a JobDescriptor is small JSON; this is generous headroom
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// JobSubmitter is the Job Queue's admission surface as the Gateway needs it.
type JobSubmitter interface {
	Enqueue(ctx context.Context, job models.JobDescriptor) error
}

// EventSubscriber is the Event Bus's consumption surface as the Gateway
// needs it.
type EventSubscriber interface {
	Subscribe(clientID string) (<-chan models.ProgressEvent, func())
}

// Gateway upgrades incoming HTTP requests to WebSocket sessions and bridges
// them to the Job Queue and Event Bus.
type Gateway struct {
	queue JobSubmitter
	bus   EventSubscriber
}

// New constructs a Gateway.
func New(queue JobSubmitter, bus EventSubscriber) *Gateway {
	return &Gateway{queue: queue, bus: bus}
}

// HandleWS upgrades the request and runs the session loop until the client
// disconnects or a terminal Progress Event is relayed.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("gateway: ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimitBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	_, raw, err := conn.ReadMessage()
	if err != nil {
		logger.Debug("gateway: ws read first frame", "error", err)
		return
	}

	var job models.JobDescriptor
	if err := json.Unmarshal(raw, &job); err != nil {
		g.writeJSON(conn, models.ProgressEvent{StageCode: models.StageFailed, StageText: "invalid JobDescriptor JSON: " + err.Error()})
		return
	}
	if job.ClientID == "" {
		g.writeJSON(conn, models.ProgressEvent{StageCode: models.StageFailed, StageText: "client_id is required"})
		return
	}

	events, unsubscribe := g.bus.Subscribe(job.ClientID)
	defer unsubscribe()

	if err := g.queue.Enqueue(r.Context(), job); err != nil {
		g.writeJSON(conn, models.ProgressEvent{ClientID: job.ClientID, JobID: job.JobID, StageCode: models.StageFailed, StageText: "enqueue failed: " + err.Error()})
		return
	}

	g.relay(conn, events)
}

// relay forwards events in order until a terminal stage is sent or the
// client disconnects (spec §4.7: "Gateways MAY close eagerly after sending
// COMPLETED or FAILED").
func (g *Gateway) relay(conn *websocket.Conn, events <-chan models.ProgressEvent) {
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-disconnected:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := g.writeJSON(conn, event); err != nil {
				logger.Debug("gateway: ws write", "error", err)
				return
			}
			if event.StageCode == models.StageCompleted || event.StageCode == models.StageFailed {
				return
			}
		}
	}
}

func (g *Gateway) writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
