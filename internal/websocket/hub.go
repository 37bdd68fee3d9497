package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/dom/photo-gallery/internal/domain"
)

const broadcastBuffer = 256

// Hub fans gallery events out to every connected client. A single goroutine
// (Run) owns the client set.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.trySend(data) {
					log.Printf("websocket: dropping message for slow client %s", client.userID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop closes every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify queues event for every connected client. It never blocks; events
// are dropped when the broadcast queue is full or the hub has stopped.
func (h *Hub) Notify(event domain.GalleryEvent) {
	msg, err := NewMessage(MessageType(event.Type), event)
	if err != nil {
		log.Printf("ERROR [hub.Notify]: %v", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [hub.Notify]: %v", err)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		log.Printf("websocket: broadcast queue full, dropping %s", event.Type)
	}
}
