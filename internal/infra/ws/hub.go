package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/skywatch/drone-annotation-service/internal/domain/entity"
	"go.uber.org/zap"
)

const (
	EventNewFrame  = "new-frame"
	EventJobStatus = "job-status"
)

// Client is one connected observer, subscribed to a single channel.
type Client struct {
	Channel string
	Conn    *websocket.Conn
	Send    chan []byte
}

// Hub is the process-scoped fan-out registry, keyed by channel (the sanitized
// video name). Delivery is best-effort: events are not buffered for absent
// subscribers and a slow client is dropped rather than back-pressuring the
// pipeline.
type Hub struct {
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	logger *zap.Logger
	mu     sync.RWMutex
}

type broadcastMessage struct {
	Channel string
	Message []byte
}

// Envelope wraps every event sent over the wire.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// JobStatusEvent is the payload of job-status events, including the terminal
// failure signal for jobs that die before emitting any frame.
type JobStatusEvent struct {
	Status  entity.JobStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		logger:     logger,
	}
}

// Run drives the hub's registry loop. Start it once at process start.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Channel] == nil {
				h.clients[client.Channel] = make(map[*Client]bool)
			}
			h.clients[client.Channel][client] = true
			h.mu.Unlock()
			h.logger.Debug("observer subscribed", zap.String("channel", client.Channel))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Channel]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.Channel)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("observer unsubscribed", zap.String("channel", client.Channel))

		case msg := <-h.broadcast:
			// Write lock: delivery can evict a slow client, which mutates
			// the registry.
			h.mu.Lock()
			if clients, ok := h.clients[msg.Channel]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishFrame broadcasts one annotation result to the channel's observers.
func (h *Hub) PublishFrame(channel string, result entity.AnnotationResult) {
	h.emit(channel, EventNewFrame, result)
}

// PublishJobStatus broadcasts a job lifecycle transition.
func (h *Hub) PublishJobStatus(channel string, status entity.JobStatus, message string) {
	h.emit(channel, EventJobStatus, JobStatusEvent{Status: status, Message: message})
}

func (h *Hub) emit(channel, event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to marshal event",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	h.broadcast <- &broadcastMessage{Channel: channel, Message: payload}
}

// HandleConnection serves one websocket observer until it disconnects.
func (h *Hub) HandleConnection(c *websocket.Conn, channel string) {
	client := &Client{
		Channel: channel,
		Conn:    c,
		Send:    make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}
}
