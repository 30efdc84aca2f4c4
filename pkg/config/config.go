// Package config loads the bridge configuration from a YAML file.
//
// Every field has a default (see Default), so a config file only needs the
// values it changes. Unknown keys are rejected.
//
// Example:
//
//	endpoint:
//	  address: "AA:BB:CC:DD:EE:FF"
//	  name: ESP32_Glasses
//	link:
//	  attempts: 3
//	  backoff:
//	    initial: 2s
//	  connect_timeout: 10s
//	supervisor:
//	  interval: 1s
//	  reconnect: once
//	logging:
//	  level: debug
//	  event_log: /var/log/glassbridge/link.llog
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glassbridge/glassbridge-go/pkg/connection"
	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/link"
	"github.com/glassbridge/glassbridge-go/pkg/message"
)

// DefaultSettleDelay is the pause before the first attempt used by the CLI.
const DefaultSettleDelay = time.Second

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration file.
type Config struct {
	Endpoint   EndpointConfig   `yaml:"endpoint"`
	Link       LinkConfig       `yaml:"link"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
	Logging    LoggingConfig    `yaml:"logging"`

	// StateFile is where the last connected endpoint is remembered.
	// Empty disables persistence.
	StateFile string `yaml:"state_file"`
}

// EndpointConfig describes the target device. An empty Address means
// "use the remembered endpoint".
type EndpointConfig struct {
	Address         string `yaml:"address"`
	Name            string `yaml:"name"`
	Kind            string `yaml:"kind"`
	Bond            string `yaml:"bond"`
	Channel         uint8  `yaml:"channel"`
	ServiceInstance string `yaml:"service_instance"`
}

// LinkConfig configures the establisher.
type LinkConfig struct {
	Attempts       int                `yaml:"attempts"`
	Backoff        link.BackoffConfig `yaml:"backoff"`
	ConnectTimeout time.Duration      `yaml:"connect_timeout"`
	SettleDelay    time.Duration      `yaml:"settle_delay"`
	Strategies     []string           `yaml:"strategies"`
	TLS            link.TLSOptions    `yaml:"tls"`
	MDNS           MDNSConfig         `yaml:"mdns"`
}

// MDNSConfig configures the mdns strategy.
type MDNSConfig struct {
	Service string `yaml:"service"`
	Domain  string `yaml:"domain"`
}

// SupervisorConfig configures liveness checking and reconnects.
type SupervisorConfig struct {
	Interval  time.Duration              `yaml:"interval"`
	Reconnect connection.ReconnectPolicy `yaml:"reconnect"`
}

// DeliveryConfig configures the delivery queue.
type DeliveryConfig struct {
	// Greeting is enqueued after every successful connect. Empty disables it.
	Greeting string `yaml:"greeting"`
}

// LoggingConfig configures operational and event logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	EventLog string `yaml:"event_log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	lc := link.DefaultConfig()
	return Config{
		Link: LinkConfig{
			Attempts:       lc.Attempts,
			Backoff:        lc.Backoff,
			ConnectTimeout: lc.ConnectTimeout,
			SettleDelay:    DefaultSettleDelay,
			MDNS: MDNSConfig{
				Service: link.DefaultServiceType,
				Domain:  link.DefaultDomain,
			},
		},
		Supervisor: SupervisorConfig{
			Interval:  connection.DefaultSupervisorInterval,
			Reconnect: connection.ReconnectOnce,
		},
		Delivery: DeliveryConfig{
			Greeting: message.DefaultGreeting,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r on top of Default and validates the result.
// An empty document yields the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Endpoint.Address != "" {
		if _, err := c.RemoteEndpoint(); err != nil {
			return fmt.Errorf("%w: endpoint: %w", ErrInvalid, err)
		}
	}
	if c.Link.Attempts < 1 {
		return fmt.Errorf("%w: link.attempts must be at least 1, got %d", ErrInvalid, c.Link.Attempts)
	}
	if c.Link.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: link.connect_timeout must be positive", ErrInvalid)
	}
	if c.Link.SettleDelay < 0 {
		return fmt.Errorf("%w: link.settle_delay must not be negative", ErrInvalid)
	}
	if c.Link.Backoff.Initial < 0 || c.Link.Backoff.Max < 0 {
		return fmt.Errorf("%w: link.backoff durations must not be negative", ErrInvalid)
	}
	if c.Link.Backoff.Jitter < 0 || c.Link.Backoff.Jitter > 1 {
		return fmt.Errorf("%w: link.backoff.jitter must be in [0,1]", ErrInvalid)
	}
	for _, name := range c.Link.Strategies {
		if _, err := link.NewNamedStrategy(name, link.StrategyConfig{}); err != nil {
			return fmt.Errorf("%w: link.strategies: %w", ErrInvalid, err)
		}
	}
	if c.Supervisor.Interval <= 0 {
		return fmt.Errorf("%w: supervisor.interval must be positive", ErrInvalid)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalid, err)
	}
	return nil
}

// RemoteEndpoint builds the endpoint described by the endpoint section.
func (c *Config) RemoteEndpoint() (endpoint.RemoteEndpoint, error) {
	kind, err := endpoint.ParseKind(c.Endpoint.Kind)
	if err != nil {
		return endpoint.RemoteEndpoint{}, err
	}
	bond, err := endpoint.ParseBondState(c.Endpoint.Bond)
	if err != nil {
		return endpoint.RemoteEndpoint{}, err
	}
	ep := endpoint.RemoteEndpoint{
		Address:         strings.TrimSpace(c.Endpoint.Address),
		Name:            c.Endpoint.Name,
		Kind:            kind,
		Bond:            bond,
		Channel:         c.Endpoint.Channel,
		ServiceInstance: c.Endpoint.ServiceInstance,
	}
	if err := ep.Validate(); err != nil {
		return endpoint.RemoteEndpoint{}, err
	}
	return ep, nil
}

// LinkConfig returns the establisher configuration. Logger, EventLog and
// Inbound are left for the caller to fill.
func (c *Config) LinkConfig() (link.Config, error) {
	sc := link.StrategyConfig{
		ServiceType: c.Link.MDNS.Service,
		Domain:      c.Link.MDNS.Domain,
	}
	if c.Link.TLS != (link.TLSOptions{}) {
		tlsConfig, err := link.NewClientTLSConfig(c.Link.TLS)
		if err != nil {
			return link.Config{}, err
		}
		sc.TLS = tlsConfig
	}
	return link.Config{
		Attempts:       c.Link.Attempts,
		Backoff:        c.Link.Backoff,
		ConnectTimeout: c.Link.ConnectTimeout,
		SettleDelay:    c.Link.SettleDelay,
		StrategyNames:  c.Link.Strategies,
		StrategyConfig: sc,
	}, nil
}

// ManagerConfig returns the connection manager configuration.
func (c *Config) ManagerConfig() connection.Config {
	return connection.Config{
		SupervisorInterval: c.Supervisor.Interval,
		Reconnect:          c.Supervisor.Reconnect,
		Greeting:           c.Delivery.Greeting,
	}
}

// ParseLevel parses a slog level name (debug, info, warn, error).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}
