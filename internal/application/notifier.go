package application

import (
	"context"

	"vesync/internal/domain"
)

type StatePublisher interface {
	Publish(ctx context.Context, state domain.DeviceState) error
}

type NoopPublisher struct{}

func (n *NoopPublisher) Publish(_ context.Context, _ domain.DeviceState) error {
	return nil
}
