// Command hspi-tool loads device templates and drives them against a
// controller.
//
// The tool runs in one of three modes:
//   - serve: host an in-memory controller on TCP and advertise it via mDNS
//   - plugin: connect to a controller given by -controller or found by -discover
//   - local (default): register against an in-process controller
//
// Usage:
//
//	hspi-tool [flags]
//
// Flags:
//
//	-def string           Device template file (YAML) loaded at startup
//	-controller string    Controller address (host:port)
//	-discover             Find the controller via mDNS
//	-serve                Run a controller instead of a plugin
//	-listen string        Listen address in serve mode (default ":10400")
//	-plugin string        Plugin interface name (default "hspi-tool")
//	-state-dir string     Directory for persisted refs and the energy log
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File to write protocol events to (.hlog)
//	-interactive          Start the command shell (default true)
//
// Examples:
//
//	# Serve a controller on the default port
//	hspi-tool -serve -interactive=false
//
//	# Register the devices of dimmer.yaml with the first controller found
//	hspi-tool -discover -def dimmer.yaml -state-dir ~/.hspi
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"

	"github.com/hspi-sdk/hspi-go/cmd/hspi-tool/interactive"
	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/discovery"
	"github.com/hspi-sdk/hspi-go/pkg/energy"
	"github.com/hspi-sdk/hspi-go/pkg/log"
	"github.com/hspi-sdk/hspi-go/pkg/persistence"
	"github.com/hspi-sdk/hspi-go/pkg/transport"
)

// Config holds the tool configuration.
type Config struct {
	DefFile         string
	Controller      string
	Discover        bool
	Serve           bool
	Listen          string
	PluginID        string
	StateDir        string
	LogLevel        string
	ProtocolLogFile string
	Interactive     bool
}

var config Config

func init() {
	flag.StringVar(&config.DefFile, "def", "", "Device template file (YAML) loaded at startup")
	flag.StringVar(&config.Controller, "controller", "", "Controller address (host:port)")
	flag.BoolVar(&config.Discover, "discover", false, "Find the controller via mDNS")
	flag.BoolVar(&config.Serve, "serve", false, "Run a controller instead of a plugin")
	flag.StringVar(&config.Listen, "listen", fmt.Sprintf(":%d", transport.DefaultPort), "Listen address in serve mode")
	flag.StringVar(&config.PluginID, "plugin", "hspi-tool", "Plugin interface name")
	flag.StringVar(&config.StateDir, "state-dir", "", "Directory for persisted refs and the energy log")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLogFile, "protocol-log", "", "File to write protocol events to (.hlog)")
	flag.BoolVar(&config.Interactive, "interactive", true, "Start the command shell")
}

func main() {
	flag.Parse()

	if err := validateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rl *readline.Instance
	out := io.Writer(os.Stderr)
	if config.Interactive && !config.Serve {
		var err error
		if rl, err = interactive.NewReadline(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		out = rl.Stdout()
	}
	logger := setupLogging(config.LogLevel, out)

	if err := run(ctx, cancel, logger, rl); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func validateConfig() error {
	modes := 0
	for _, set := range []bool{config.Serve, config.Controller != "", config.Discover} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("-serve, -controller and -discover are mutually exclusive")
	}
	if config.Serve && config.DefFile != "" {
		return fmt.Errorf("-def needs a plugin mode, not -serve")
	}
	if config.PluginID == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	return nil
}

func setupLogging(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func run(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, rl *readline.Instance) error {
	protocolLogger, closeProtocolLog, err := setupProtocolLog(logger)
	if err != nil {
		return err
	}
	defer closeProtocolLog()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if config.Serve {
		return serve(ctx, logger, protocolLogger, sigCh)
	}

	ctrl, closeCtrl, err := connect(ctx, logger, protocolLogger)
	if err != nil {
		return err
	}
	defer closeCtrl()

	var store *persistence.StateStore
	state := persistence.NewPluginState(config.PluginID)
	if config.StateDir != "" {
		store = persistence.NewDirStateStore(config.StateDir)
		if state, err = store.LoadOrNew(config.PluginID); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
	}

	repo, closeRepo, err := openEnergy(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	browser := discovery.NewBrowser(discovery.BrowserConfig{Log: logger})
	defer browser.Stop()

	shell := interactive.New(interactive.Config{
		PluginID:   config.PluginID,
		Controller: ctrl,
		State:      state,
		Energy:     repo,
		Browser:    browser,
		Readline:   rl,
		Log:        logger,
	})
	if rl == nil {
		shell.SetOutput(io.Discard)
	}

	if config.DefFile != "" {
		if err := shell.Load(ctx, config.DefFile); err != nil {
			return fmt.Errorf("load %s: %w", config.DefFile, err)
		}
	}

	if rl != nil {
		go shell.Run(ctx, cancel)
	}

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	if store != nil {
		if err := store.Save(state); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		logger.Info("state saved", "path", store.Path(), "devices", len(state.Refs))
	}
	return nil
}

func setupProtocolLog(logger *slog.Logger) (log.Logger, func(), error) {
	if config.ProtocolLogFile == "" {
		return nil, func() {}, nil
	}
	path := config.ProtocolLogFile
	if filepath.Ext(path) == "" {
		path += log.FileExt
	}
	fileLogger, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open protocol log: %w", err)
	}
	logger.Info("protocol logging enabled", "path", path)

	multi := log.NewMultiLogger(fileLogger)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		multi = log.NewMultiLogger(fileLogger, log.NewSlogAdapter(logger))
	}
	return multi, func() {
		if err := fileLogger.Close(); err != nil {
			logger.Warn("close protocol log", "error", err)
			return
		}
		logger.Info("protocol log closed", "events", fileLogger.Written())
	}, nil
}

// connect returns the controller the plugin talks to.
func connect(ctx context.Context, logger *slog.Logger, protocolLogger log.Logger) (controller.Controller, func(), error) {
	address := config.Controller
	if config.Discover {
		browser := discovery.NewBrowser(discovery.BrowserConfig{Log: logger})
		defer browser.Stop()

		logger.Info("browsing for controllers", "timeout", discovery.DefaultBrowseTimeout)
		svc, err := browser.FindFirst(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("discover controller: %w", err)
		}
		logger.Info("found controller", "instance", svc.InstanceName, "addr", svc.Address(), "id", svc.InstanceID)
		address = svc.Address()
	}

	if address == "" {
		logger.Info("using in-process controller")
		mem := controller.NewMemory(controller.MemoryConfig{Log: logger, ProtocolLogger: protocolLogger})
		return mem, func() {}, nil
	}

	conn, err := transport.Dial(ctx, address, transport.DialConfig{Logger: protocolLogger})
	if err != nil {
		return nil, nil, err
	}
	client := controller.NewClient(conn, controller.ClientConfig{
		PluginID:       config.PluginID,
		ConnectionID:   conn.ID(),
		Log:            logger,
		ProtocolLogger: protocolLogger,
	})
	logger.Info("connected to controller", "addr", address, "conn", conn.ID())
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Debug("close client", "error", err)
		}
	}, nil
}

func openEnergy(ctx context.Context) (energy.Repository, func(), error) {
	path := ":memory:"
	if config.StateDir != "" {
		if err := os.MkdirAll(config.StateDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create state dir: %w", err)
		}
		path = filepath.Join(config.StateDir, "energy.db")
	}
	db, err := energy.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open energy log: %w", err)
	}
	repo := energy.NewSQLiteRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("energy schema: %w", err)
	}
	return repo, func() { db.Close() }, nil
}

// serve hosts an in-memory controller until a signal arrives.
func serve(ctx context.Context, logger *slog.Logger, protocolLogger log.Logger, sigCh <-chan os.Signal) error {
	mem := controller.NewMemory(controller.MemoryConfig{Log: logger, ProtocolLogger: protocolLogger})

	server, err := transport.NewServer(transport.ServerConfig{
		Address: config.Listen,
		Logger:  protocolLogger,
		Log:     logger,
		Handler: controller.Handler(mem, controller.ServeConfig{Log: logger, ProtocolLogger: protocolLogger}),
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()

	advertiser := discovery.NewAdvertiser(discovery.AdvertiserConfig{Log: logger})
	info := &discovery.ControllerInfo{
		InstanceID: config.PluginID,
		Version:    discovery.ProtocolVersion,
		Port:       listenPort(server),
	}
	if err := advertiser.Advertise(info); err != nil {
		logger.Warn("mDNS advertising failed, continuing without", "error", err)
	}
	defer advertiser.Stop()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			logger.Info("controller status", "devices", len(mem.DeviceRefs()))
		}
	}
}

func listenPort(server *transport.Server) uint16 {
	if addr, ok := server.Addr().(*net.TCPAddr); ok {
		return uint16(addr.Port)
	}
	return discovery.DefaultPort
}
