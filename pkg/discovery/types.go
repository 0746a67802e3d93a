package discovery

import (
	"errors"
	"net"
	"strconv"

	"github.com/hspi-sdk/hspi-go/pkg/transport"
)

const (
	// ServiceType is the DNS-SD service of the controller's plugin endpoint.
	ServiceType = "_hspi._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is advertised when ControllerInfo.Port is zero.
	DefaultPort = transport.DefaultPort

	// ProtocolVersion is the plugin protocol version spoken by this module.
	ProtocolVersion = 1

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyID      = "id"
	TXTKeyVersion = "ver"
	TXTKeyName    = "name"
)

var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidVersion      = errors.New("invalid protocol version")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrNotFound            = errors.New("controller not found")
	ErrNotAdvertising      = errors.New("not advertising")
)

// ControllerInfo is what a controller advertises about itself.
type ControllerInfo struct {
	InstanceID string
	Name       string
	Version    int
	Port       uint16
}

// ControllerService is a controller found on the network.
type ControllerService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	InstanceID string
	Name       string
	Version    int
}

// Address returns host:port for transport.Dial, preferring the first
// resolved address over the host name.
func (s *ControllerService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// Compatible reports whether the controller speaks this module's protocol.
func (s *ControllerService) Compatible() bool {
	return s.Version == ProtocolVersion
}
