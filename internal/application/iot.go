package application

import (
	"context"

	"vesync/internal/domain"
)

type DeviceDirectory interface {
	Sync(ctx context.Context) error
	Switches() []domain.Switch
	Lookup(key string) (domain.Switch, bool)
	Summary() string
}
