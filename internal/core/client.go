package core

// Client is one live connection as seen by the core layer. The transport
// owns the network socket; the core only sees the two channels. The transport
// closes Commands once its reader is gone; the hub closes Events on
// unregister.
type Client struct {
	ID       string
	Commands chan Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels. eventBuffer bounds
// the outbound queue; a full queue means events are dropped for this client.
func NewClient(id string, eventBuffer int) *Client {
	if eventBuffer <= 0 {
		eventBuffer = 16
	}
	return &Client{
		ID:       id,
		Commands: make(chan Command, 8),
		Events:   make(chan *Event, eventBuffer),
	}
}
