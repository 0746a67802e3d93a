package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hspi-sdk/hspi-go/pkg/log"
)

// Connection states reported in protocol state events.
const (
	StateConnected    = "CONNECTED"
	StateDisconnected = "DISCONNECTED"
)

// DefaultConnectTimeout applies to Dial when ctx carries no deadline.
const DefaultConnectTimeout = 30 * time.Second

// Conn is one framed plugin-controller link.
type Conn struct {
	conn      net.Conn
	framer    *Framer
	id        string
	role      log.Role
	logger    log.Logger
	closeOnce sync.Once
	closeErr  error
}

func newConn(nc net.Conn, maxSize uint32, logger log.Logger, role log.Role) *Conn {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	c := &Conn{
		conn:   nc,
		framer: NewFramerWithMaxSize(nc, maxSize),
		id:     uuid.New().String(),
		role:   role,
		logger: logger,
	}
	if logger != nil {
		c.framer.SetLogger(logger, c.id, role)
	}
	c.logState("", StateConnected, "")
	return c
}

// ID returns the connection id used in protocol log events.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// ReadFrame reads the next message payload.
func (c *Conn) ReadFrame() ([]byte, error) { return c.framer.ReadFrame() }

// WriteFrame sends one message payload.
func (c *Conn) WriteFrame(data []byte) error { return c.framer.WriteFrame(data) }

// SetDeadline sets the read and write deadline of the underlying stream.
func (c *Conn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

// Close closes the link once and logs the disconnect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		c.logState(StateConnected, StateDisconnected, "")
	})
	return c.closeErr
}

func (c *Conn) logState(old, state, reason string) {
	if c.logger == nil {
		return
	}
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		LocalRole:    c.role,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old,
			NewState: state,
			Reason:   reason,
		},
	})
}

// DialConfig configures the plugin side of the link.
type DialConfig struct {
	// MaxMessageSize defaults to DefaultMaxMessageSize.
	MaxMessageSize uint32

	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Logger receives frame and state events (optional).
	Logger log.Logger
}

// Dial connects a plugin to the controller at address.
func Dial(ctx context.Context, address string, cfg DialConfig) (*Conn, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return newConn(nc, cfg.MaxMessageSize, cfg.Logger, log.RolePlugin), nil
}
