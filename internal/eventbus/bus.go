// Package eventbus implements the Event Bus component (spec §4, §9): an
// in-process pub/sub distributing Progress Events from the Worker to the
// Gateway's WebSocket sessions on topic "transcription_updates", keyed by
// client id (spec §4.7: the Gateway holds one session per client_id and
// relays any Bus message whose client_id matches).
//
// Grounded on internal/sse/broadcaster.go's register/unregister/broadcast
// channel-actor pattern, generalized per §9's redesign note: callers get an
// explicit Subscribe/unsubscribe pair instead of the teacher's ServeHTTP
// method owning subscription lifecycle directly, since this deployment's
// Gateway drives WebSocket sessions rather than SSE responses.
package eventbus

import (
	"sync"

	"mediascribe/internal/models"
	"mediascribe/pkg/logger"
)

type subscription struct {
	clientID string
	ch       chan models.ProgressEvent
}

// Bus is the Event Bus. The zero value is not usable; use New.
type Bus struct {
	subscribers map[string]map[chan models.ProgressEvent]bool
	register    chan subscription
	unregister  chan subscription
	publish     chan models.ProgressEvent
	shutdown    chan struct{}
	mutex       sync.RWMutex
}

// New constructs a Bus and starts its dispatch loop.
func New() *Bus {
	b := &Bus{
		subscribers: make(map[string]map[chan models.ProgressEvent]bool),
		register:    make(chan subscription),
		unregister:  make(chan subscription),
		publish:     make(chan models.ProgressEvent),
		shutdown:    make(chan struct{}),
	}
	go b.listen()
	return b
}

func (b *Bus) listen() {
	for {
		select {
		case sub := <-b.register:
			b.mutex.Lock()
			if b.subscribers[sub.clientID] == nil {
				b.subscribers[sub.clientID] = make(map[chan models.ProgressEvent]bool)
			}
			b.subscribers[sub.clientID][sub.ch] = true
			b.mutex.Unlock()

		case sub := <-b.unregister:
			b.mutex.Lock()
			if clients, ok := b.subscribers[sub.clientID]; ok {
				delete(clients, sub.ch)
				close(sub.ch)
				if len(clients) == 0 {
					delete(b.subscribers, sub.clientID)
				}
			}
			b.mutex.Unlock()

		case event := <-b.publish:
			b.mutex.RLock()
			if clients, ok := b.subscribers[event.ClientID]; ok {
				for ch := range clients {
					select {
					case ch <- event:
					default:
						logger.Warn("eventbus: dropping event for slow subscriber", "client_id", event.ClientID)
					}
				}
			}
			b.mutex.RUnlock()

		case <-b.shutdown:
			b.mutex.Lock()
			for _, clients := range b.subscribers {
				for ch := range clients {
					close(ch)
				}
			}
			b.subscribers = nil
			b.mutex.Unlock()
			return
		}
	}
}

// Subscribe registers a new listener for clientID's events. The returned
// unsubscribe func must be called exactly once when the caller is done;
// it closes the returned channel.
func (b *Bus) Subscribe(clientID string) (<-chan models.ProgressEvent, func()) {
	ch := make(chan models.ProgressEvent, 16)
	sub := subscription{clientID: clientID, ch: ch}

	select {
	case b.register <- sub:
	case <-b.shutdown:
		close(ch)
		return ch, func() {}
	}

	unsubscribe := func() {
		select {
		case b.unregister <- sub:
		case <-b.shutdown:
		}
	}
	return ch, unsubscribe
}

// Publish broadcasts event to every subscriber of event.ClientID.
func (b *Bus) Publish(event models.ProgressEvent) {
	select {
	case b.publish <- event:
	case <-b.shutdown:
	}
}

// Shutdown stops the dispatch loop and closes every subscriber channel.
func (b *Bus) Shutdown() {
	close(b.shutdown)
}
