package discovery

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// DefaultBrowseTimeout bounds FindFirst when the context has no deadline.
const DefaultBrowseTimeout = 10 * time.Second

// BrowserConfig configures controller browsing.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	Interface string

	// BrowseTimeout bounds FindFirst. Zero means DefaultBrowseTimeout.
	BrowseTimeout time.Duration

	Log *slog.Logger
}

// sighting is one announcement or withdrawal as seen on one interface.
type sighting struct {
	instance  string
	host      string
	port      int
	text      []string
	addresses []string
}

// browseFunc streams sightings until ctx is done.
type browseFunc func(ctx context.Context, added, removed chan<- sighting) error

// Browser finds controllers on the local network.
type Browser struct {
	config BrowserConfig
	browse browseFunc

	mu     sync.Mutex
	cancel []context.CancelFunc
}

// NewBrowser creates a browser using mDNS.
func NewBrowser(config BrowserConfig) *Browser {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}
	if config.Log == nil {
		config.Log = slog.New(slog.DiscardHandler)
	}
	b := &Browser{config: config}
	b.browse = b.zeroconfBrowse
	return b
}

// Browse streams controllers as they are found. Addresses announced on
// several interfaces are merged into the first service emitted for the
// instance. The channel closes when ctx is done or Stop is called.
func (b *Browser) Browse(ctx context.Context) (<-chan *ControllerService, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = append(b.cancel, cancel)
	b.mu.Unlock()

	out := make(chan *ControllerService)
	added := make(chan sighting)
	removed := make(chan sighting)

	go func() {
		defer close(out)
		defer cancel()

		services := make(map[string]*ControllerService)
		for {
			select {
			case s := <-added:
				svc := b.toService(s)
				if svc == nil {
					continue
				}
				if existing, found := services[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case s := <-removed:
				if existing, found := services[s.instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, s.addresses)
					if len(existing.Addresses) == 0 {
						delete(services, s.instance)
						b.config.Log.Debug("controller gone", "instance", s.instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := b.browse(ctx, added, removed); err != nil && ctx.Err() == nil {
			b.config.Log.Warn("mdns browse failed", "error", err)
		}
	}()

	return out, nil
}

// FindFirst returns the first compatible controller, or ErrNotFound once
// the browse timeout expires.
func (b *Browser) FindFirst(ctx context.Context) (*ControllerService, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for svc := range results {
		if svc.Compatible() {
			return svc, nil
		}
		b.config.Log.Debug("skipping incompatible controller", "instance", svc.InstanceName, "version", svc.Version)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	return nil, ErrNotFound
}

// Stop cancels every running Browse.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.cancel {
		cancel()
	}
	b.cancel = nil
}

func (b *Browser) toService(s sighting) *ControllerService {
	info, err := DecodeControllerTXT(StringsToTXTRecords(s.text))
	if err != nil {
		b.config.Log.Debug("ignoring controller announcement", "instance", s.instance, "error", err)
		return nil
	}
	return &ControllerService{
		InstanceName: s.instance,
		Host:         s.host,
		Port:         uint16(s.port),
		Addresses:    s.addresses,
		InstanceID:   info.InstanceID,
		Name:         info.Name,
		Version:      info.Version,
	}
}

// zeroconfBrowse runs an mDNS query and forwards entries as sightings.
func (b *Browser) zeroconfBrowse(ctx context.Context, added, removed chan<- sighting) error {
	entries := make(chan *zeroconf.ServiceEntry)
	gone := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		for {
			var (
				entry *zeroconf.ServiceEntry
				ok    bool
				dst   chan<- sighting
			)
			select {
			case entry, ok = <-entries:
				dst = added
			case entry, ok = <-gone:
				dst = removed
			case <-ctx.Done():
				return
			}
			if !ok {
				return
			}
			select {
			case dst <- entrySighting(entry):
			case <-ctx.Done():
				return
			}
		}
	}()

	return zeroconf.Browse(ctx, ServiceType, Domain, entries, gone, opts...)
}

func entrySighting(entry *zeroconf.ServiceEntry) sighting {
	return sighting{
		instance:  entry.Instance,
		host:      entry.HostName,
		port:      entry.Port,
		text:      entry.Text,
		addresses: entryAddresses(entry.AddrIPv4, entry.AddrIPv6),
	}
}

func entryAddresses(v4, v6 []net.IP) []string {
	addrs := make([]string, 0, len(v4)+len(v6))
	for _, ip := range v4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range v6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops every address in gone from addresses.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, addr := range gone {
		toRemove[addr] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
