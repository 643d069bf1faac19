package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"vesync/internal/application"
	"vesync/internal/domain"
)

type mockSwitch struct {
	cid       string
	name      string
	status    domain.PowerStatus
	refreshed domain.PowerStatus
	failWith  error
	updates   int
	writes    int
}

func (m *mockSwitch) CID() string                { return m.cid }
func (m *mockSwitch) Name() string               { return m.name }
func (m *mockSwitch) Status() domain.PowerStatus { return m.status }
func (m *mockSwitch) State() domain.DeviceState {
	return domain.DeviceState{CID: m.cid, Name: m.name, Power: m.status}
}

func (m *mockSwitch) Update(_ context.Context) error {
	m.updates++
	if m.failWith != nil {
		return m.failWith
	}
	m.status = m.refreshed
	return nil
}

func (m *mockSwitch) SetPower(_ context.Context, desired domain.PowerStatus) error {
	if m.failWith != nil {
		return m.failWith
	}
	if m.status != desired {
		m.writes++
		m.status = desired
	}
	return nil
}

func (m *mockSwitch) Toggle(ctx context.Context) error {
	if m.status == domain.PowerOn {
		return m.SetPower(ctx, domain.PowerOff)
	}
	return m.SetPower(ctx, domain.PowerOn)
}

type mockDirectory struct {
	switches []*mockSwitch
	syncs    int
	syncErr  error
}

func (d *mockDirectory) Sync(_ context.Context) error {
	d.syncs++
	return d.syncErr
}

func (d *mockDirectory) Switches() []domain.Switch {
	result := make([]domain.Switch, len(d.switches))
	for i, s := range d.switches {
		result[i] = s
	}
	return result
}

func (d *mockDirectory) Lookup(key string) (domain.Switch, bool) {
	for _, s := range d.switches {
		if s.cid == key || s.name == key {
			return s, true
		}
	}
	return nil, false
}

func (d *mockDirectory) Summary() string { return "test devices" }

type recordingPublisher struct {
	states []domain.DeviceState
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, state domain.DeviceState) error {
	if p.err != nil {
		return p.err
	}
	p.states = append(p.states, state)
	return nil
}

func newController(dir *mockDirectory, pub application.StatePublisher) *application.Controller {
	return application.NewController(dir, pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestController_Execute(t *testing.T) {
	lamp := &mockSwitch{cid: "c1", name: "Lamp", status: domain.PowerOff}
	dir := &mockDirectory{switches: []*mockSwitch{lamp}}
	pub := &recordingPublisher{}
	ctrl := newController(dir, pub)

	state, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionTurnOn, TargetName: "Lamp"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if state.Power != domain.PowerOn {
		t.Errorf("power: got %s, want on", state.Power)
	}

	if _, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionToggle, TargetID: "c1"}); err != nil {
		t.Fatalf("Execute toggle error: %v", err)
	}
	if lamp.status != domain.PowerOff {
		t.Errorf("after toggle: got %s, want off", lamp.status)
	}

	if len(pub.states) != 2 {
		t.Errorf("published states: got %d, want 2", len(pub.states))
	}
}

func TestController_Execute_GetStatus(t *testing.T) {
	lamp := &mockSwitch{cid: "c1", name: "Lamp", refreshed: domain.PowerOn}
	ctrl := newController(&mockDirectory{switches: []*mockSwitch{lamp}}, nil)

	state, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionGetStatus, TargetName: "Lamp"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if lamp.updates != 1 || state.Power != domain.PowerOn {
		t.Errorf("updates=%d power=%s", lamp.updates, state.Power)
	}
}

func TestController_Execute_Errors(t *testing.T) {
	failing := &mockSwitch{cid: "c2", name: "Heater", failWith: errors.New("boom")}
	ctrl := newController(&mockDirectory{switches: []*mockSwitch{failing}}, &recordingPublisher{})

	if _, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionTurnOn, TargetName: "Garage"}); !errors.Is(err, application.ErrDeviceNotFound) {
		t.Errorf("missing device: got %v", err)
	}
	if _, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionUnknown, TargetName: "Heater"}); !errors.Is(err, application.ErrUnsupportedAction) {
		t.Errorf("unknown action: got %v", err)
	}
	if _, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionTurnOn, TargetName: "Heater"}); err == nil {
		t.Error("expected device error")
	}
}

func TestController_Execute_PublishFailureIsNotFatal(t *testing.T) {
	lamp := &mockSwitch{cid: "c1", name: "Lamp", status: domain.PowerOff}
	ctrl := newController(&mockDirectory{switches: []*mockSwitch{lamp}}, &recordingPublisher{err: errors.New("broker down")})

	if _, err := ctrl.Execute(context.Background(), &domain.Command{Action: domain.ActionTurnOn, TargetName: "Lamp"}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if lamp.writes != 1 {
		t.Errorf("writes: got %d, want 1", lamp.writes)
	}
}

func TestController_PublishAll(t *testing.T) {
	dir := &mockDirectory{switches: []*mockSwitch{
		{cid: "c1", name: "Lamp", refreshed: domain.PowerOn},
		{cid: "c2", name: "Heater", failWith: errors.New("offline")},
		{cid: "c3", name: "Fan", refreshed: domain.PowerOff},
	}}
	pub := &recordingPublisher{}
	ctrl := newController(dir, pub)

	n, err := ctrl.PublishAll(context.Background())
	if err != nil {
		t.Fatalf("PublishAll error: %v", err)
	}
	if n != 2 || len(pub.states) != 2 {
		t.Errorf("published: got %d (%d states), want 2", n, len(pub.states))
	}
	if dir.syncs != 1 {
		t.Errorf("syncs: got %d, want 1", dir.syncs)
	}
}

func TestController_PublishAll_SyncError(t *testing.T) {
	ctrl := newController(&mockDirectory{syncErr: errors.New("no network")}, &recordingPublisher{})

	if _, err := ctrl.PublishAll(context.Background()); err == nil {
		t.Error("expected sync error")
	}
}
