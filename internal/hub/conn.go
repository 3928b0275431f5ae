package hub

// Event is one outbound frame destined for a client connection.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Conn is a live bidirectional session as seen by the hub. The transport
// layer owns the underlying socket; the hub only needs a stable identifier
// and a non-blocking send. Send reports whether the event was accepted for
// delivery (a closed or backed-up connection drops it).
type Conn interface {
	ID() string
	Send(event Event) bool
}
