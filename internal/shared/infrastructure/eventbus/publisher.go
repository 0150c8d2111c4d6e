package eventbus

import (
	"context"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// PublishResult represents the result of a publish operation.
type PublishResult struct {
	Success bool
	Error   error
}

// FanoutPublisher publishes every event to all underlying sinks.
// Used when local consumers and an external broker both need the
// same stream.
type FanoutPublisher struct {
	sinks []Publisher
}

// NewFanoutPublisher creates a fan-out over the given publishers.
func NewFanoutPublisher(sinks ...Publisher) *FanoutPublisher {
	return &FanoutPublisher{sinks: sinks}
}

// Publish sends the event to every sink and returns the first error.
// All sinks are attempted regardless of earlier failures.
func (f *FanoutPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, routingKey, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink.
func (f *FanoutPublisher) Close() error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
