package websocket

// Message defines the structure for websocket messages pushed to clients.
// Action carries the event type, e.g. "expense.created".
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}
