package model

type EventKind string

const (
	EventMoved     EventKind = "MOVED"
	EventRotated   EventKind = "ROTATED"
	EventCollided  EventKind = "COLLIDED"
	EventFired     EventKind = "FIRED"
	EventHit       EventKind = "HIT"
	EventFragged   EventKind = "FRAGGED"
	EventRespawned EventKind = "RESPAWNED"
	EventCharged   EventKind = "CHARGED"
	EventPickedUp  EventKind = "PICKED_UP"
	EventDelivered EventKind = "DELIVERED"
	EventAte       EventKind = "ATE"
	EventExploded  EventKind = "EXPLODED"
	EventWarning   EventKind = "WARNING"
	EventStop      EventKind = "STOP"
)

// Event is emitted by the engine during a tick and drained by observers after it completes.
type Event struct {
	Tick   uint64    `json:"tick"`
	Agent  string    `json:"agent,omitempty"`
	Kind   EventKind `json:"kind"`
	Other  string    `json:"other,omitempty"`
	Loc    Location  `json:"loc"`
	Amount int       `json:"amount,omitempty"`
	Detail string    `json:"detail,omitempty"`
}
