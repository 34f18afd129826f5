package notifiers

import "context"

// Notifier announces a finished publish to a downstream sink (SQS, SNS, HTTP, etc).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}

// closer is implemented by notifiers holding long-lived clients.
type closer interface {
	Close() error
}
