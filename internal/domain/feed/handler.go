package feed

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/amenio/amenio-api/internal/pkg/jwt"
	"github.com/amenio/amenio-api/internal/pkg/response"
)

// WebSocket constants
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler serves the live feed WebSocket endpoint
type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	upgrader websocket.Upgrader
}

// NewHandler creates feed handler
func NewHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		jwt: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				if len(allowedOrigins) == 0 {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				log.Warn().Str("origin", origin).Msg("Feed origin rejected")
				return false
			},
		},
	}
}

// WebSocket handles WS /ws/feed?token=
// Browsers cannot set the Authorization header on WebSocket requests, so
// the JWT travels as a query parameter. The subscriber is pinned to the
// building in the token claims.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}
	if claims.BuildingID == "" {
		response.Forbidden(w, "Token is not scoped to a building")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Feed WebSocket upgrade failed")
		return
	}

	client := &Connection{
		BuildingID: claims.BuildingID,
		Send:       make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.wsReader(client, conn)
	go h.wsWriter(client, conn)
}

// wsReader drains the socket for pongs and close frames. The feed is
// one-way; client payloads are ignored.
func (h *Handler) wsReader(client *Connection, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("building_id", client.BuildingID).Msg("Feed read error")
			}
			return
		}
	}
}

func (h *Handler) wsWriter(client *Connection, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
