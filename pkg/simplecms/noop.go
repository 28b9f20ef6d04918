package simplecms

import "context"

// NoopNotifier is a no-operation implementation of Notifier
// Useful when no applications need to be notified or for testing
type NoopNotifier struct{}

// NewNoopNotifier creates a new no-operation notifier
func NewNoopNotifier() Notifier {
	return &NoopNotifier{}
}

// Notify does nothing and returns nil
func (n *NoopNotifier) Notify(ctx context.Context, event EventType, rec *APIRecord) error {
	return nil
}
