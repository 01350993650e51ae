package fabric

import (
	"context"
	"errors"
)

// ErrDeliveryFailure is wrapped by every error caused by a message that
// could not be handed to its recipient.
var ErrDeliveryFailure = errors.New("delivery failure")

// ErrClosed is returned when using a closed fabric.
var ErrClosed = errors.New("fabric closed")

// Sender sends addressed messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Endpoint is the mailbox of one agent.
type Endpoint interface {
	Address() string
	Inbox() <-chan Message
	Close()
}

// Fabric connects agents by address. Delivery is at-least-once per
// connection and ordered per sender and recipient pair.
type Fabric interface {
	Sender
	Connect(address string) (Endpoint, error)
	Close() error
}

// SizedConnector is implemented by fabrics whose mailboxes can be sized per
// address.
type SizedConnector interface {
	ConnectSize(address string, size int) (Endpoint, error)
}

// ConnectSize connects address with room for at least size messages. Fabrics
// without per address sizing use their configured capacity.
func ConnectSize(f Fabric, address string, size int) (Endpoint, error) {
	if s, ok := f.(SizedConnector); ok {
		return s.ConnectSize(address, size)
	}
	return f.Connect(address)
}
