package domain

// EventKind mirrors the change type of a stored row
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
)

// MessageEvent is pushed to both participants after every message write
type MessageEvent struct {
	Event   EventKind        `json:"event"`
	Message *MessageResponse `json:"message"`
}

// TypingEvent is relayed to the peer only; it is never stored
type TypingEvent struct {
	From string `json:"from"`
}
