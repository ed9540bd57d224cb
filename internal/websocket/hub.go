package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/spendtrack/spendtrack-be/internal/models"
)

// Hub maintains the set of active clients and routes activity events to the
// clients of the user they belong to.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Outbound events paired with the user they target.
	notify chan userMessage

	// A map of user IDs to the set of that user's connected clients.
	subscriptions map[string]map[*Client]bool
}

type userMessage struct {
	userID  string
	payload []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		notify:        make(chan userMessage, 16),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case msg := <-h.notify:
			for client := range h.subscriptions[msg.userID] {
				select {
				case client.Send <- msg.payload:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		}
	}
}

// Notify sends an activity event to all of a user's connected clients.
// It implements services.ActivityNotifier.
func (h *Hub) Notify(userID string, event models.Event) {
	payload, err := json.Marshal(Message{Action: event.Type, Payload: event})
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to encode activity event")
		return
	}
	select {
	case h.notify <- userMessage{userID: userID, payload: payload}:
	default:
		log.Warn().Str("user_id", userID).Msg("Activity feed backlogged, dropping event")
	}
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs := h.subscriptions[client.UserID]
	if _, ok := subs[client]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}
