package realtime

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
)

// EventsChannel carries booking events between API instances.
const EventsChannel = "booking:events"

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

// envelope is what travels over Redis.
type envelope struct {
	SenderInstanceID string        `json:"sender_instance_id"`
	Event            booking.Event `json:"event"`
}

// Connection represents a WebSocket connection
type Connection struct {
	ActorID string
	Conn    *websocket.Conn
	Send    chan []byte
}

// Hub tracks websocket connections per actor and pushes booking events to
// the seeker and provider of each booking. With Redis, events published on
// one instance reach connections held by every other instance.
type Hub struct {
	connections map[string]map[*Connection]bool
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a hub; redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a hub with explicit instance identifier.
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[string]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}
	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, EventsChannel)
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
			if h.connections[conn.ActorID] == nil {
				h.connections[conn.ActorID] = make(map[*Connection]bool)
			}
			h.connections[conn.ActorID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)
			log.Debug().Str("actor_id", conn.ActorID).Msg("Actor connected to WebSocket")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.ActorID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.ActorID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("actor_id", conn.ActorID).Msg("Actor disconnected from WebSocket")
		}
	}
}

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
			h.handleRemote(msg.Payload)
		}
	}
}

// handleRemote delivers an event published by another instance.
func (h *Hub) handleRemote(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Warn().Err(err).Msg("Malformed booking event on Redis")
		return
	}
	if env.SenderInstanceID == h.instanceID {
		return
	}
	h.deliverLocal(env.Event)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// PublishBookingEvent pushes event to local connections of its recipients
// and, with Redis, to the other instances.
func (h *Hub) PublishBookingEvent(ctx context.Context, event booking.Event) error {
	h.deliverLocal(event)

	if h.redis == nil {
		return nil
	}
	payload, err := json.Marshal(envelope{SenderInstanceID: h.instanceID, Event: event})
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, EventsChannel, payload).Err()
}

func (h *Hub) deliverLocal(event booking.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal booking event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool, 2)
	for _, actorID := range event.Recipients() {
		if actorID == "" || seen[actorID] {
			continue
		}
		seen[actorID] = true

		for conn := range h.connections[actorID] {
			select {
			case conn.Send <- data:
				wsEventsSentTotal.Add(1)
			default:
				wsEventsDroppedTotal.Add(1)
				log.Warn().Str("actor_id", actorID).Msg("WebSocket send buffer full")
			}
		}
	}
}

// GetConnectionCount returns number of local connections
func (h *Hub) GetConnectionCount() int {
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
