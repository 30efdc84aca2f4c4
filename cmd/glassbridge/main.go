// Command glassbridge keeps a link to a pair of smart glasses and delivers
// text messages to them.
//
// This command runs the connection manager with:
//   - CLI argument parsing
//   - Configuration file support
//   - Remembered endpoint across restarts
//   - Binary link event log (view with glassbridge-log)
//   - Optional interactive console
//
// Usage:
//
//	glassbridge [flags]
//
// Flags:
//
//	-config string      Configuration file path
//	-address string     Endpoint address (Bluetooth MAC or host:port)
//	-name string        Endpoint display name
//	-kind string        Endpoint kind: rfcomm, tcp (default "rfcomm")
//	-channel int        RFCOMM channel (0 uses the default)
//	-unpaired           Treat the endpoint as not paired
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-event-log string   Link event log file (.llog)
//	-state-file string  File remembering the last connected endpoint
//	-interactive        Enable interactive command mode
//
// Examples:
//
//	# Connect to paired glasses over Bluetooth
//	glassbridge -address AA:BB:CC:DD:EE:FF -name ESP32_Glasses
//
//	# Connect to a bench bridge over TCP with an event log
//	glassbridge -kind tcp -address 192.168.1.40:7000 -event-log /tmp/link.llog
//
//	# Reuse the remembered endpoint and drive it by hand
//	glassbridge -state-file ~/.glassbridge/state.json -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glassbridge/glassbridge-go/cmd/glassbridge/interactive"
	"github.com/glassbridge/glassbridge-go/pkg/config"
	"github.com/glassbridge/glassbridge-go/pkg/connection"
	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/link"
	"github.com/glassbridge/glassbridge-go/pkg/log"
	"github.com/glassbridge/glassbridge-go/pkg/persistence"
)

// Flags holds the command-line overrides.
// It implements interactive.BridgeConfig.
type Flags struct {
	ConfigFile  string
	Address     string
	Name        string
	Kind        string
	Channel     uint
	Unpaired    bool
	LogLevel    string
	EventLog    string
	StateFile   string
	Interactive bool

	// target is resolved in main from flags, file and remembered state.
	target    endpoint.RemoteEndpoint
	hasTarget bool
}

// Target implements interactive.BridgeConfig.
func (f *Flags) Target() (endpoint.RemoteEndpoint, bool) {
	return f.target, f.hasTarget
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.Address, "address", "", "Endpoint address (Bluetooth MAC or host:port)")
	flag.StringVar(&flags.Name, "name", "", "Endpoint display name")
	flag.StringVar(&flags.Kind, "kind", "", "Endpoint kind: rfcomm, tcp")
	flag.UintVar(&flags.Channel, "channel", 0, "RFCOMM channel (0 uses the default)")
	flag.BoolVar(&flags.Unpaired, "unpaired", false, "Treat the endpoint as not paired")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.EventLog, "event-log", "", "Link event log file (.llog)")
	flag.StringVar(&flags.StateFile, "state-file", "", "File remembering the last connected endpoint")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Enable interactive command mode")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// In interactive mode, log output goes through readline to avoid
	// interfering with input.
	var console *interactive.Console
	out := io.Writer(os.Stderr)
	if flags.Interactive {
		console, err = interactive.New(&flags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create interactive console: %v\n", err)
			os.Exit(1)
		}
		out = console.Stdout()
	}

	level, _ := config.ParseLevel(cfg.Logging.Level)
	logger := setupLogging(out, level)

	logger.Info("glassbridge starting",
		"config", flags.ConfigFile,
		"reconnect", cfg.Supervisor.Reconnect.String(),
		"attempts", cfg.Link.Attempts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event log: binary file plus debug-level mirror in the operational log.
	eventLoggers := []log.Logger{log.NewSlogAdapter(logger)}
	var fileLogger *log.FileLogger
	if cfg.Logging.EventLog != "" {
		fileLogger, err = log.NewFileLogger(cfg.Logging.EventLog)
		if err != nil {
			logger.Error("failed to open event log", "path", cfg.Logging.EventLog, "error", err)
			os.Exit(1)
		}
		eventLoggers = append(eventLoggers, fileLogger)
		logger.Info("event log enabled", "path", cfg.Logging.EventLog)
	}
	eventLog := log.NewMultiLogger(eventLoggers...)

	var store *persistence.LinkStateStore
	var recorder *persistence.EndpointRecorder
	if cfg.StateFile != "" {
		store = persistence.NewLinkStateStore(cfg.StateFile)
		recorder = persistence.NewEndpointRecorder(store, logger)
	}
	resolveTarget(&cfg, store, logger)

	linkCfg, err := cfg.LinkConfig()
	if err != nil {
		logger.Error("failed to build link config", "error", err)
		os.Exit(1)
	}
	linkCfg.Logger = logger
	linkCfg.EventLog = eventLog
	linkCfg.Inbound = func(ep endpoint.RemoteEndpoint, data []byte) {
		logger.Debug("inbound", "endpoint", ep.Address, "bytes", len(data))
	}

	mgrCfg := cfg.ManagerConfig()
	mgrCfg.Logger = logger
	mgrCfg.EventLog = eventLog

	mgr := connection.NewManager(link.NewEstablisher(linkCfg), mgrCfg)
	mgr.Subscribe(func(ev connection.Event) {
		handleEvent(logger, recorder, ev)
	})
	if console != nil {
		console.Attach(mgr)
	}

	if flags.hasTarget {
		if err := mgr.Connect(flags.target); err != nil {
			logger.Error("connect failed", "error", err)
		}
	} else {
		logger.Warn("no endpoint configured; use -address or the interactive connect command")
	}

	// Run interactive mode or wait for signal
	if console != nil {
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cancel()

	if err := mgr.Close(); err != nil {
		logger.Warn("error closing manager", "error", err)
	}
	if recorder != nil {
		recorder.Close()
	}
	if fileLogger != nil {
		if n := fileLogger.Dropped(); n > 0 {
			logger.Warn("event log dropped events", "count", n)
		}
		if err := fileLogger.Close(); err != nil {
			logger.Warn("error closing event log", "error", err)
		}
	}

	logger.Info("goodbye")
}

// loadConfig reads the config file (if any) and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(flags.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if flags.Address != "" {
		cfg.Endpoint.Address = flags.Address
	}
	if flags.Name != "" {
		cfg.Endpoint.Name = flags.Name
	}
	if flags.Kind != "" {
		cfg.Endpoint.Kind = flags.Kind
	}
	if flags.Channel != 0 {
		if flags.Channel > 30 {
			return cfg, fmt.Errorf("channel must be 1-30, got %d", flags.Channel)
		}
		cfg.Endpoint.Channel = uint8(flags.Channel)
	}
	if flags.Unpaired {
		cfg.Endpoint.Bond = endpoint.BondNone.String()
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	if flags.EventLog != "" {
		cfg.Logging.EventLog = flags.EventLog
	}
	if flags.StateFile != "" {
		cfg.StateFile = flags.StateFile
	}

	return cfg, cfg.Validate()
}

// resolveTarget picks the configured endpoint, falling back to the one
// remembered in the state file.
func resolveTarget(cfg *config.Config, store *persistence.LinkStateStore, logger *slog.Logger) {
	if cfg.Endpoint.Address != "" {
		ep, err := cfg.RemoteEndpoint()
		if err == nil {
			flags.target, flags.hasTarget = ep, true
		}
		return
	}
	if store == nil {
		return
	}

	ep, ok, err := store.LastEndpoint()
	switch {
	case err != nil:
		logger.Warn("failed to load remembered endpoint", "path", store.Path(), "error", err)
	case ok:
		logger.Info("using remembered endpoint", "endpoint", ep.String())
		flags.target, flags.hasTarget = ep, true
	}
}

func setupLogging(w io.Writer, level slog.Leveler) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func handleEvent(logger *slog.Logger, recorder *persistence.EndpointRecorder, ev connection.Event) {
	logger.Info("link state",
		"state", ev.State.String(),
		"reason", ev.Reason.String(),
		"status", ev.Status.String(),
		"endpoint", ev.Endpoint.Address)

	if ev.State == connection.StateConnected && recorder != nil {
		recorder.Record(ev.Endpoint)
	}
}
