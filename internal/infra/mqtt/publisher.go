package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"vesync/internal/domain"
)

type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
	Timeout     time.Duration
}

// Client is the subset of paho.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher writes device state snapshots as JSON to
// <prefix>/<cid>/state.
type Publisher struct {
	client  Client
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
	logger  *slog.Logger
}

// Connect dials the broker and returns a publisher bound to it.
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	if err := connect(client, cfg.Broker, cfg.Timeout); err != nil {
		return nil, err
	}

	logger.Info("connected to mqtt broker", "broker", cfg.Broker, "client_id", cfg.ClientID)

	return NewPublisher(client, cfg, logger), nil
}

type connector interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
}

// connect waits for the initial connection. On timeout the client is
// disconnected so its reconnect loop does not outlive the failed call.
func connect(client connector, broker string, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return fmt.Errorf("connecting to %s: timed out after %s", broker, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to %s: %w", broker, err)
	}
	return nil
}

func NewPublisher(client Client, cfg Config, logger *slog.Logger) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Publisher{
		client:  client,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *Publisher) Topic(cid string) string {
	if p.prefix == "" {
		return cid + "/state"
	}
	return p.prefix + "/" + cid + "/state"
}

func (p *Publisher) Publish(ctx context.Context, state domain.DeviceState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	topic := p.Topic(state.CID)
	token := p.client.Publish(topic, p.qos, p.retain, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publishing to %s: timed out", topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	p.logger.Debug("published device state", "topic", topic, "power", state.Power.String())

	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
