package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vesync/config"
	"vesync/internal/application"
	"vesync/internal/domain"
	"vesync/internal/infra"
	"vesync/internal/infra/mqtt"
	"vesync/internal/infra/vesync"
)

const usage = `usage: vesync [-config path] <command> [device]

commands:
  list              list devices registered to the account
  status <device>   refresh and print the power status
  on <device>       switch the outlet on
  off <device>      switch the outlet off
  toggle <device>   flip the outlet
  energy <device>   print the weekly energy report
  config <device>   print the device configuration
  publish           publish the state of every device to MQTT

<device> is a cid or a (partial) device name.
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger, os.Stdout, flag.Args()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, args []string) error {
	command := args[0]
	target := ""
	if len(args) > 1 {
		target = args[1]
	}

	client := vesync.NewClientWithURL(cfg.VeSync.BaseURL,
		vesync.WithTimeout(parseDuration(logger, "vesync.timeout", cfg.VeSync.Timeout, vesync.DefaultTimeout)),
		vesync.WithRetry(retryConfig(logger, cfg.VeSync.Retry)),
		vesync.WithSwitchType(cfg.VeSync.SwitchType),
		vesync.WithLogger(logger),
	)

	session, err := client.Login(ctx, cfg.VeSync.Account, cfg.VeSync.Password)
	if err != nil {
		if vesync.IsUnauthorized(err) {
			return fmt.Errorf("credentials rejected: %w", err)
		}
		return err
	}

	registry := vesync.NewRegistry(client, session, logger)

	publisher, closePublisher, err := createPublisher(cfg.MQTT, command == "publish", logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	controller := application.NewController(registry, publisher, logger)

	if command == "publish" {
		n, err := controller.PublishAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "published %d device states\n", n)
		return nil
	}

	if err := registry.Sync(ctx); err != nil {
		return err
	}

	switch command {
	case "list":
		fmt.Fprint(out, registry.Summary())
		return nil
	case "energy", "config":
		return printReport(ctx, registry, command, target, out)
	}

	action := domain.ParseAction(command)
	if action == domain.ActionUnknown {
		return fmt.Errorf("unknown command %q", command)
	}
	if target == "" {
		return fmt.Errorf("%s: missing device", command)
	}

	state, err := controller.Execute(ctx, &domain.Command{Action: action, TargetName: target})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s [%s]: %s (%s)\n", state.Name, state.CID, state.Power, state.Connection)

	return nil
}

func printReport(ctx context.Context, registry *vesync.Registry, command, target string, out io.Writer) error {
	device, ok := registry.FindDeviceByID(target)
	if !ok {
		device, ok = registry.FindDeviceByName(target)
	}
	if !ok {
		return fmt.Errorf("%w: %q", application.ErrDeviceNotFound, target)
	}

	if command == "energy" {
		energy, err := device.EnergyWeek(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: today %.2f kWh, week total %.2f kWh, max %.2f kWh, %.2f %s/kWh\n",
			device.Name(), energy.Today, energy.TotalEnergy, energy.MaxEnergy, energy.CostPerKWH, energy.Currency)
		fmt.Fprintf(out, "samples: %v\n", energy.Data)
		return nil
	}

	cfg, err := device.Configuration(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: firmware %.2f (latest %.2f, upgrading %t)\n",
		cfg.DeviceName, cfg.CurrentFirmwareVersion, cfg.LatestFirmwareVersion, cfg.IsUpgrading)
	fmt.Fprintf(out, "notify %s, energy saving %s, power protection %s\n",
		cfg.AllowNotify, cfg.EnergySaving, cfg.PowerProtection)
	fmt.Fprintf(out, "max cost %d, cost per kWh %d, threshold %d, max power %d\n",
		cfg.MaxCost, cfg.CostPerKWH, cfg.Threshold, cfg.MaxPower)

	return nil
}

func createPublisher(cfg config.MQTTConfig, required bool, logger *slog.Logger) (application.StatePublisher, func(), error) {
	if !cfg.Enabled {
		if required {
			return nil, nil, errors.New("publish: mqtt is not enabled in config")
		}
		return &application.NoopPublisher{}, func() {}, nil
	}

	publisher, err := mqtt.Connect(mqtt.Config{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		Username:    cfg.Username,
		Password:    cfg.Password,
		TopicPrefix: cfg.TopicPrefix,
		QoS:         byte(cfg.QoS),
		Retain:      cfg.Retain,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mqtt: %w", err)
	}

	return publisher, publisher.Close, nil
}

func retryConfig(logger *slog.Logger, cfg config.RetryConfig) infra.RetryConfig {
	defaults := infra.DefaultRetryConfig()
	return infra.RetryConfig{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: parseDuration(logger, "vesync.retry.initial_delay", cfg.InitialDelay, defaults.InitialDelay),
		MaxDelay:     parseDuration(logger, "vesync.retry.max_delay", cfg.MaxDelay, defaults.MaxDelay),
		Multiplier:   cfg.Multiplier,
	}
}

func parseDuration(logger *slog.Logger, key, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
