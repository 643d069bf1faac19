package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vesync/internal/domain"
)

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrUnsupportedAction = errors.New("unsupported action")
)

// Controller runs commands against devices from a directory and forwards the
// resulting state to a publisher. Publishing is best effort: a failed publish
// is logged and never fails the command.
type Controller struct {
	directory DeviceDirectory
	publisher StatePublisher
	logger    *slog.Logger
}

func NewController(directory DeviceDirectory, publisher StatePublisher, logger *slog.Logger) *Controller {
	if publisher == nil {
		publisher = &NoopPublisher{}
	}
	return &Controller{
		directory: directory,
		publisher: publisher,
		logger:    logger,
	}
}

func (c *Controller) Execute(ctx context.Context, cmd *domain.Command) (domain.DeviceState, error) {
	key := cmd.TargetID
	if key == "" {
		key = cmd.TargetName
	}

	sw, ok := c.directory.Lookup(key)
	if !ok {
		return domain.DeviceState{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, key)
	}

	var err error
	switch cmd.Action {
	case domain.ActionTurnOn:
		err = sw.SetPower(ctx, domain.PowerOn)
	case domain.ActionTurnOff:
		err = sw.SetPower(ctx, domain.PowerOff)
	case domain.ActionToggle:
		err = sw.Toggle(ctx)
	case domain.ActionGetStatus:
		err = sw.Update(ctx)
	default:
		return domain.DeviceState{}, fmt.Errorf("%w: %s", ErrUnsupportedAction, cmd.Action)
	}
	if err != nil {
		return domain.DeviceState{}, fmt.Errorf("executing %s on %s: %w", cmd.Action, sw.Name(), err)
	}

	state := sw.State()
	c.logger.Info("command executed",
		"action", cmd.Action,
		"device", state.Name,
		"cid", state.CID,
		"power", state.Power.String(),
	)
	c.publish(ctx, state)

	return state, nil
}

// PublishAll refreshes every device in the directory and publishes its state.
// Devices that fail to refresh are skipped; the number published is returned.
func (c *Controller) PublishAll(ctx context.Context) (int, error) {
	if err := c.directory.Sync(ctx); err != nil {
		return 0, fmt.Errorf("syncing devices: %w", err)
	}

	published := 0
	for _, sw := range c.directory.Switches() {
		if err := sw.Update(ctx); err != nil {
			c.logger.Warn("refreshing device", "cid", sw.CID(), "error", err)
			continue
		}
		if err := c.publisher.Publish(ctx, sw.State()); err != nil {
			c.logger.Warn("publishing device state", "cid", sw.CID(), "error", err)
			continue
		}
		published++
	}

	return published, nil
}

func (c *Controller) publish(ctx context.Context, state domain.DeviceState) {
	if err := c.publisher.Publish(ctx, state); err != nil {
		c.logger.Warn("publishing device state", "cid", state.CID, "error", err)
	}
}
