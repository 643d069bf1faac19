package vesync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"vesync/internal/domain"
)

// Registry holds the result of the last device listing, indexed by name.
// It only changes when Sync is called.
type Registry struct {
	client  *Client
	session *Session
	logger  *slog.Logger

	mu      sync.RWMutex
	devices []*Device

	nameIndex map[string]*Device
	idIndex   map[string]*Device
}

func NewRegistry(client *Client, session *Session, logger *slog.Logger) *Registry {
	return &Registry{
		client:    client,
		session:   session,
		logger:    logger,
		nameIndex: make(map[string]*Device),
		idIndex:   make(map[string]*Device),
	}
}

func (r *Registry) Sync(ctx context.Context) error {
	r.logger.Info("syncing devices from vesync")

	devices, err := r.client.ListDevices(ctx, r.session)
	if err != nil {
		return fmt.Errorf("fetching devices: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = devices

	r.nameIndex = make(map[string]*Device, len(devices))
	r.idIndex = make(map[string]*Device, len(devices))
	for _, d := range r.devices {
		r.nameIndex[strings.ToLower(d.Name())] = d
		r.idIndex[d.CID()] = d
	}

	r.logger.Info("sync complete", "devices", len(r.devices))

	return nil
}

func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Device, len(r.devices))
	copy(result, r.devices)
	return result
}

// Switches returns the same devices as Devices behind the domain interface.
func (r *Registry) Switches() []domain.Switch {
	devices := r.Devices()
	result := make([]domain.Switch, len(devices))
	for i, d := range devices {
		result[i] = d
	}
	return result
}

func (r *Registry) FindDeviceByID(cid string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.idIndex[cid]
	return d, ok
}

// FindDeviceByName matches the full name case-insensitively, then falls back
// to the first device whose name contains name.
func (r *Registry) FindDeviceByName(name string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, false
	}

	if d, ok := r.nameIndex[key]; ok {
		return d, true
	}

	for _, d := range r.devices {
		if strings.Contains(strings.ToLower(d.Name()), key) {
			return d, true
		}
	}

	return nil, false
}

// Lookup resolves key as a cid first and a name second.
func (r *Registry) Lookup(key string) (domain.Switch, bool) {
	if d, ok := r.FindDeviceByID(key); ok {
		return d, true
	}
	if d, ok := r.FindDeviceByName(key); ok {
		return d, true
	}
	return nil, false
}

func (r *Registry) Summary() string {
	devices := r.Devices()

	var sb strings.Builder
	for _, d := range devices {
		state := d.State()
		sb.WriteString(fmt.Sprintf("- %s [%s] (type: %s, power: %s, connection: %s)\n",
			state.Name, state.CID, state.Type, state.Power, state.Connection))
	}

	return sb.String()
}
