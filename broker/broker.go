package broker

import (
	"context"

	"github.com/Shockvaluemedia/directfanz-billing/notification"
)

// Producer defines the interface for queueing notifications via message broker
type Producer interface {
	notification.Sender
	Close()
}

// Consumer defines the interface for receiving queued notifications
type Consumer interface {
	ReceiveMessages(ctx context.Context) (<-chan notification.Message, error)
	Close()
}
