package vesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"vesync/internal/domain"
)

const devicesPath = "/vold/user/devices"

// Device is one outlet registered to an account. The cached power status is
// guarded by a mutex: Update, SetPower and Toggle on the same Device run one
// at a time. The mutex is held for the whole HTTP exchange, so Status, State
// and Connection block until an in-flight call finishes, for up to the
// client timeout.
type Device struct {
	client  *Client
	session *Session

	cid             string
	name            string
	imageURL        string
	deviceType      string
	model           string
	connectionType  string
	firmwareVersion string

	mu         sync.Mutex
	status     domain.PowerStatus
	connection domain.ConnectionStatus
}

// NewDevice builds a device from a known cid without contacting the server.
// Its power and connection status start as unknown; call Update or Toggle to
// resolve the power status.
func NewDevice(client *Client, session *Session, cid string) (*Device, error) {
	if cid == "" {
		return nil, ErrEmptyDeviceID
	}
	if session == nil {
		return nil, ErrNoSession
	}
	if client == nil {
		return nil, ErrNoClient
	}

	return &Device{
		client:  client,
		session: session,
		cid:     cid,
	}, nil
}

// ListDevices returns every device registered to the session's account. A
// single malformed record fails the whole call.
func (c *Client) ListDevices(ctx context.Context, session *Session) ([]*Device, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, ErrNoSession)
	}

	body, err := c.doRequest(ctx, http.MethodGet, devicesPath, session, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices: %w", ErrFetch, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: listing devices: %w: %w", ErrFetch, ErrDecode, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: listing devices: %w: not a device list", ErrFetch, ErrDecode)
	}

	devices := make([]*Device, 0, len(records))
	for i, raw := range records {
		var rec deviceRecord
		if err := decodeRecord(raw, &rec, deviceRecordFields); err != nil {
			return nil, fmt.Errorf("%w: device record %d: %w", ErrFetch, i, err)
		}
		if rec.CID == "" {
			return nil, fmt.Errorf("%w: device record %d: %w: empty cid", ErrFetch, i, ErrDecode)
		}

		devices = append(devices, &Device{
			client:          c,
			session:         session,
			cid:             rec.CID,
			name:            rec.DeviceName,
			imageURL:        rec.DeviceImg,
			deviceType:      rec.DeviceType,
			model:           rec.Model,
			connectionType:  rec.ConnectionType,
			firmwareVersion: rec.CurrentFirmVersion,
			status:          rec.DeviceStatus,
			connection:      rec.ConnectionStatus,
		})
	}

	c.logger.Debug("listed devices", "count", len(devices))

	return devices, nil
}

func (d *Device) CID() string             { return d.cid }
func (d *Device) Name() string            { return d.name }
func (d *Device) ImageURL() string        { return d.imageURL }
func (d *Device) Model() string           { return d.model }
func (d *Device) ConnectionType() string  { return d.connectionType }
func (d *Device) FirmwareVersion() string { return d.firmwareVersion }

// Type is the device type reported by the listing, e.g. "wifi-switch-1.3".
// It is informational only; power commands use the client's switch type.
func (d *Device) Type() string { return d.deviceType }

func (d *Device) Status() domain.PowerStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Device) Connection() domain.ConnectionStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connection
}

func (d *Device) State() domain.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return domain.DeviceState{
		CID:        d.cid,
		Name:       d.name,
		Type:       d.deviceType,
		Power:      d.status,
		Connection: d.connection,
	}
}

func (d *Device) Details(ctx context.Context) (*Details, error) {
	var details Details
	if err := d.get(ctx, "/v1/device/"+url.PathEscape(d.cid)+"/detail", &details, detailsFields); err != nil {
		return nil, fmt.Errorf("%w: device detail: %w", ErrFetch, err)
	}
	return &details, nil
}

func (d *Device) EnergyWeek(ctx context.Context) (*EnergyConsumption, error) {
	var energy EnergyConsumption
	if err := d.get(ctx, "/v1/device/"+url.PathEscape(d.cid)+"/energy/week", &energy, energyFields); err != nil {
		return nil, fmt.Errorf("%w: weekly energy: %w", ErrFetch, err)
	}
	return &energy, nil
}

func (d *Device) Configuration(ctx context.Context) (*Configuration, error) {
	var cfg Configuration
	if err := d.get(ctx, "/v1/device/"+url.PathEscape(d.cid)+"/configurations", &cfg, configurationFields); err != nil {
		return nil, fmt.Errorf("%w: device configuration: %w", ErrFetch, err)
	}
	return &cfg, nil
}

func (d *Device) get(ctx context.Context, path string, v any, required []string) error {
	body, err := d.client.doRequest(ctx, http.MethodGet, path, d.session, nil)
	if err != nil {
		return err
	}
	return decodeRecord(body, v, required)
}

// Update refreshes the cached power status from the detail endpoint.
// Connection status is left alone.
func (d *Device) Update(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(ctx)
}

func (d *Device) update(ctx context.Context) error {
	details, err := d.Details(ctx)
	if err != nil {
		return err
	}
	d.status = details.Status
	return nil
}

func (d *Device) On(ctx context.Context) error {
	return d.SetPower(ctx, domain.PowerOn)
}

func (d *Device) Off(ctx context.Context) error {
	return d.SetPower(ctx, domain.PowerOff)
}

// SetPower switches the outlet on or off. When the cached status already
// matches desired no request is sent. The cache is not re-checked with the
// server first, so a change made elsewhere (another app, the button on the
// plug) can cause a needed command to be skipped; call Update beforehand if
// that matters. The cached status only changes after the server accepts the
// command.
func (d *Device) SetPower(ctx context.Context, desired domain.PowerStatus) error {
	if desired != domain.PowerOn && desired != domain.PowerOff {
		return fmt.Errorf("%w: %w", ErrCommand, ErrInvalidState)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setPower(ctx, desired)
}

func (d *Device) setPower(ctx context.Context, desired domain.PowerStatus) error {
	if d.status == desired {
		d.client.logger.Debug("device already in requested state", "cid", d.cid, "status", desired.String())
		return nil
	}

	path := fmt.Sprintf("/v1/%s/%s/status/%s", d.client.switchType, url.PathEscape(d.cid), desired)
	if _, err := d.client.doRequest(ctx, http.MethodPut, path, d.session, nil); err != nil {
		return fmt.Errorf("%w: turning %s %s: %w", ErrCommand, d.cid, desired, err)
	}

	d.status = desired
	d.client.logger.Info("device power changed", "cid", d.cid, "name", d.name, "status", desired.String())

	return nil
}

// Toggle flips the power status. An unknown status is resolved with one
// detail read first.
func (d *Device) Toggle(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.status == domain.PowerUnknown {
		if err := d.update(ctx); err != nil {
			return err
		}
		if d.status == domain.PowerUnknown {
			return fmt.Errorf("%w: %w", ErrFetch, ErrUnknownStatus)
		}
	}

	if d.status == domain.PowerOn {
		return d.setPower(ctx, domain.PowerOff)
	}
	return d.setPower(ctx, domain.PowerOn)
}
