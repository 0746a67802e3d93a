package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/log"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// DefaultRequestTimeout bounds a request when ctx has no earlier deadline.
const DefaultRequestTimeout = 30 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	// PluginID tags protocol events.
	PluginID string

	// ConnectionID tags protocol events. A new UUID is used when empty.
	ConnectionID string

	// Timeout defaults to DefaultRequestTimeout.
	Timeout time.Duration

	// Log is the operational logger (optional).
	Log *slog.Logger

	// ProtocolLogger receives request and response events (optional).
	ProtocolLogger log.Logger
}

// Client implements Controller over a framed link. Requests are
// correlated with responses by message id, so several may be in flight.
// There is no retry: a broken link fails every pending request.
type Client struct {
	conn   FrameConn
	cfg    ClientConfig
	log    *slog.Logger
	events log.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	nextMsgID uint32
	pending   map[uint32]chan *wire.Response
	closed    bool
	readErr   error

	done chan struct{}
}

// NewClient starts a client reading responses from conn.
func NewClient(conn FrameConn, cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.ConnectionID == "" {
		cfg.ConnectionID = uuid.New().String()
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		conn:    conn,
		cfg:     cfg,
		log:     cfg.Log.With("conn", cfg.ConnectionID),
		events:  log.OrNoop(cfg.ProtocolLogger),
		pending: make(map[uint32]chan *wire.Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// ConnectionID returns the id used in protocol events.
func (c *Client) ConnectionID() string { return c.cfg.ConnectionID }

// Close fails pending requests and closes conn when it is an io.Closer.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.failPending()
	c.mu.Unlock()

	if closer, ok := c.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Done is closed once the read loop has stopped.
func (c *Client) Done() <-chan struct{} { return c.done }

// CreateDevice implements Controller.
func (c *Client) CreateDevice(ctx context.Context, data *factory.NewDeviceData) (int, error) {
	if data == nil {
		return 0, errors.New("nil device data")
	}
	raw, err := wire.EncodeChanges(data.Changes)
	if err != nil {
		return 0, err
	}
	features := make([]wire.RawChanges, 0, len(data.Features))
	for i, fc := range data.Features {
		rf, err := wire.EncodeChanges(fc)
		if err != nil {
			return 0, fmt.Errorf("feature %d: %w", i, err)
		}
		features = append(features, rf)
	}

	resp, err := c.roundTrip(ctx, &wire.Request{Operation: wire.OpCreateDevice, Changes: raw, Features: features})
	if err != nil {
		return 0, err
	}
	return resp.Ref, nil
}

// CreateFeature implements Controller.
func (c *Client) CreateFeature(ctx context.Context, data *factory.NewFeatureData) (int, error) {
	if data == nil {
		return 0, errors.New("nil feature data")
	}
	raw, err := wire.EncodeChanges(data.Changes)
	if err != nil {
		return 0, err
	}
	resp, err := c.roundTrip(ctx, &wire.Request{Operation: wire.OpCreateFeature, Changes: raw})
	if err != nil {
		return 0, err
	}
	return resp.Ref, nil
}

// UpdateEntity implements Controller.
func (c *Client) UpdateEntity(ctx context.Context, ref int, changes model.Changes) error {
	raw, err := wire.EncodeChanges(changes)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(ctx, &wire.Request{Operation: wire.OpUpdate, Ref: ref, Changes: raw})
	return err
}

func (c *Client) register() (uint32, chan *wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		if c.readErr != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrClientClosed, c.readErr)
		}
		return 0, nil, ErrClientClosed
	}
	c.nextMsgID++
	if c.nextMsgID == 0 {
		c.nextMsgID = 1
	}
	ch := make(chan *wire.Response, 1)
	c.pending[c.nextMsgID] = ch
	return c.nextMsgID, ch, nil
}

func (c *Client) unregister(id uint32) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// roundTrip sends req and waits for its response, turning an error status
// into an error.
func (c *Client) roundTrip(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	id, ch, err := c.register()
	if err != nil {
		return nil, err
	}
	defer c.unregister(id)
	req.MessageID = id

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.writeMu.Lock()
	err = c.conn.WriteFrame(data)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Operation, err)
	}
	c.logMessage(log.DirectionOut, log.RequestEvent(req))

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s message %d", ErrRequestTimeout, req.Operation, id)
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClientClosed
		}
		c.logMessage(log.DirectionIn, log.ResponseEvent(resp, time.Since(start)))
		if err := resp.Err(); err != nil {
			c.log.Debug("request rejected", "op", req.Operation.String(), "status", resp.Status.String(), "error", err)
			return nil, err
		}
		return resp, nil
	}
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		data, err := c.conn.ReadFrame()
		if err != nil {
			c.mu.Lock()
			if !c.closed {
				c.closed = true
				c.readErr = err
				c.log.Warn("controller link lost", "error", err)
			}
			c.failPending()
			c.mu.Unlock()
			return
		}

		resp, err := wire.DecodeResponse(data)
		if err != nil {
			c.log.Warn("dropping undecodable response", "error", err)
			continue
		}
		if err := c.deliver(resp); err != nil {
			c.log.Warn("dropping response", "msg_id", resp.MessageID, "error", err)
		}
	}
}

func (c *Client) deliver(resp *wire.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[resp.MessageID]
	if !ok {
		return ErrUnexpectedReply
	}
	// Sending under mu keeps failPending from closing ch concurrently.
	select {
	case ch <- resp:
	default:
	}
	return nil
}

// failPending must be called with mu held.
func (c *Client) failPending() {
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) logMessage(dir log.Direction, msg *log.MessageEvent) {
	c.events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.cfg.ConnectionID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RolePlugin,
		PluginID:     c.cfg.PluginID,
		Message:      msg,
	})
}

var _ Controller = (*Client)(nil)
