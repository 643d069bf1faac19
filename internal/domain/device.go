package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// PowerStatus is the on/off state of an outlet. PowerUnknown is only used for
// devices built locally that have not been queried yet; the API never sends it.
type PowerStatus int

const (
	PowerUnknown PowerStatus = iota
	PowerOn
	PowerOff
)

func (s PowerStatus) String() string {
	switch s {
	case PowerOn:
		return "on"
	case PowerOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParsePowerStatus accepts the wire literals "on" and "off" only.
func ParsePowerStatus(s string) (PowerStatus, error) {
	switch s {
	case "on":
		return PowerOn, nil
	case "off":
		return PowerOff, nil
	default:
		return PowerUnknown, fmt.Errorf("invalid power status %q", s)
	}
}

func (s PowerStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PowerStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("power status: %w", err)
	}
	parsed, err := ParsePowerStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ConnectionStatus is whether the vendor cloud can currently reach the device.
type ConnectionStatus int

const (
	ConnectionUnknown ConnectionStatus = iota
	ConnectionOnline
	ConnectionOffline
)

func (s ConnectionStatus) String() string {
	switch s {
	case ConnectionOnline:
		return "online"
	case ConnectionOffline:
		return "offline"
	default:
		return "unknown"
	}
}

func ParseConnectionStatus(s string) (ConnectionStatus, error) {
	switch s {
	case "online":
		return ConnectionOnline, nil
	case "offline":
		return ConnectionOffline, nil
	default:
		return ConnectionUnknown, fmt.Errorf("invalid connection status %q", s)
	}
}

func (s ConnectionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ConnectionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("connection status: %w", err)
	}
	parsed, err := ParseConnectionStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DeviceState is a point-in-time snapshot of a device, as published to
// downstream consumers.
type DeviceState struct {
	CID        string           `json:"cid"`
	Name       string           `json:"name"`
	Type       string           `json:"type,omitempty"`
	Power      PowerStatus      `json:"power"`
	Connection ConnectionStatus `json:"connection"`
}

// Switch is a controllable outlet.
type Switch interface {
	CID() string
	Name() string
	Status() PowerStatus
	State() DeviceState
	Update(ctx context.Context) error
	SetPower(ctx context.Context, desired PowerStatus) error
	Toggle(ctx context.Context) error
}
