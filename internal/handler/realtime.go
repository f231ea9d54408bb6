package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The viewer frontend is served from a different origin on the shop LAN.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteDeadline = 10 * time.Second

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Serve handles GET /ws/:branch_code — upgrades to a websocket, replays
// today's cached invoices for the branch and then streams new ones as they
// are ingested. The client may send the text "ping" for an application
// level keepalive; the server answers "pong".
func (h *RealtimeHandler) Serve(c *gin.Context) {
	branch := strings.ToUpper(strings.TrimSpace(c.Param("branch_code")))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Warn().Err(err).Str("branch", branch).Msg("websocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe(branch)
	defer h.hub.Unsubscribe(sub)
	defer conn.Close()

	pongCh := make(chan struct{}, 1)
	done := make(chan struct{})

	// Reader: surfaces client disconnects and application-level pings.
	go func() {
		defer close(done)
		for {
			msgType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && strings.TrimSpace(string(payload)) == "ping" {
				select {
				case pongCh <- struct{}{}:
				default:
				}
			}
		}
	}()

	log.Info().Str("branch", branch).Msg("websocket client connected")
	for {
		select {
		case <-done:
			log.Info().Str("branch", branch).Msg("websocket client disconnected")
			return
		case <-pongCh:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}
		case msg, ok := <-sub.C():
			if !ok {
				// The hub dropped us as a slow consumer.
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("branch", branch).Msg("websocket write failed")
				return
			}
		}
	}
}
