package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures the controller advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the record TTL. Zero keeps the zeroconf default.
	TTL time.Duration

	Log *slog.Logger
}

// Advertiser publishes the controller's plugin endpoint.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
	info   ControllerInfo
}

// NewAdvertiser creates an advertiser. Nothing is published until Advertise.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.Log == nil {
		config.Log = slog.New(slog.DiscardHandler)
	}
	return &Advertiser{config: config}
}

// interfaces returns the network interfaces to advertise on, nil for all.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts publishing info, replacing any earlier registration.
func (a *Advertiser) Advertise(info *ControllerInfo) error {
	if info.InstanceID == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	if info.Version <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, info.Version)
	}
	instance := InstanceName(info)
	if err := ValidateInstanceName(instance); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeControllerTXT(info)),
		interfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register controller service: %w", err)
	}

	a.server = server
	a.info = *info
	a.config.Log.Info("advertising controller", "instance", instance, "port", port, "id", info.InstanceID)
	return nil
}

// Update replaces the TXT records of the running registration.
func (a *Advertiser) Update(info *ControllerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	if info.InstanceID != a.info.InstanceID {
		return fmt.Errorf("instance id changed from %q to %q, advertise again", a.info.InstanceID, info.InstanceID)
	}
	a.server.SetText(TXTRecordsToStrings(EncodeControllerTXT(info)))
	a.info = *info
	return nil
}

// Advertising reports whether a registration is active.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Stop withdraws the registration. Safe to call when not advertising.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.config.Log.Info("stopped advertising controller", "id", a.info.InstanceID)
	}
}
