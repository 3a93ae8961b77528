package feed

import (
	"context"
	"encoding/json"
	"expvar"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// BuildingChannel is the Redis Pub/Sub channel carrying a building's feed.
// The reminder worker publishes to the same channels, so events reach every
// API instance regardless of which one holds the socket.
const buildingChannelPrefix = "feed:building:"

// BuildingChannel returns the Redis channel name for a building's feed
func BuildingChannel(buildingID string) string {
	return buildingChannelPrefix + buildingID
}

var (
	feedConnectionsGauge   = expvar.NewInt("feed_connections")
	feedEventsSentTotal    = expvar.NewInt("feed_events_sent_total")
	feedEventsDroppedTotal = expvar.NewInt("feed_events_dropped_total")
)

// Connection represents one subscriber socket, pinned to a building
type Connection struct {
	BuildingID string
	Send       chan []byte
}

// Hub fans booking events out to feed subscribers. With Redis configured,
// events travel through Pub/Sub so multiple API instances stay in sync;
// without it, broadcasts reach local connections only.
type Hub struct {
	connections map[string]map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates the feed hub
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[string]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}

	if redisClient != nil {
		h.pubsub = redisClient.PSubscribe(ctx, buildingChannelPrefix+"*")
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.BuildingID] == nil {
				h.connections[conn.BuildingID] = make(map[*Connection]bool)
			}
			h.connections[conn.BuildingID][conn] = true
			h.mu.Unlock()
			feedConnectionsGauge.Add(1)
			log.Debug().Str("building_id", conn.BuildingID).Msg("Feed subscriber connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.BuildingID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					feedConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.BuildingID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("building_id", conn.BuildingID).Msg("Feed subscriber disconnected")
		}
	}
}

// runRedisSubscriber relays Pub/Sub payloads to local connections
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !strings.HasPrefix(msg.Channel, buildingChannelPrefix) {
				continue
			}
			buildingID := msg.Channel[len(buildingChannelPrefix):]
			h.broadcastLocal(buildingID, []byte(msg.Payload))
		}
	}
}

// broadcastLocal sends data to subscribers connected to THIS instance
func (h *Hub) broadcastLocal(buildingID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[buildingID] {
		select {
		case conn.Send <- data:
			feedEventsSentTotal.Add(1)
		default:
			// Buffer full, skip this event
			feedEventsDroppedTotal.Add(1)
			log.Warn().Str("building_id", buildingID).Msg("Feed send buffer full")
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast sends an event to every subscriber of the building, on all
// instances when Redis is available.
func (h *Hub) Broadcast(ctx context.Context, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed event")
		return
	}

	if h.redis != nil {
		channel := BuildingChannel(event.BuildingID)
		if err := h.redis.Publish(ctx, channel, data).Err(); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("Redis publish failed")
			h.broadcastLocal(event.BuildingID, data)
		}
		return
	}

	h.broadcastLocal(event.BuildingID, data)
}

// ConnectionCount returns the number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
