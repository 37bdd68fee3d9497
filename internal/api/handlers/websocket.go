package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/dom/photo-gallery/internal/api/middleware"
	"github.com/dom/photo-gallery/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader ws.Upgrader
}

// NewWebSocketHandler accepts browser connections only from appURL.
// Requests without an Origin header are not from a browser and are let
// through.
func NewWebSocketHandler(hub *websocket.Hub, appURL string) *WebSocketHandler {
	allowed := strings.TrimRight(appURL, "/")
	return &WebSocketHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || strings.EqualFold(strings.TrimRight(origin, "/"), allowed)
			},
		},
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, session.User.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
