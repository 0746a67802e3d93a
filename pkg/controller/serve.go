package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/log"
	"github.com/hspi-sdk/hspi-go/pkg/transport"
	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

// ServeConfig configures ServeConn.
type ServeConfig struct {
	// ConnectionID tags protocol events.
	ConnectionID string

	// Log is the operational logger (optional).
	Log *slog.Logger

	// ProtocolLogger receives request and response events (optional).
	ProtocolLogger log.Logger
}

// ServeConn answers requests read from conn with ctrl until the link ends
// or ctx is cancelled. A clean end of stream returns nil. When conn is an
// io.Closer it is closed on cancellation to unblock the read.
func ServeConn(ctx context.Context, conn FrameConn, ctrl Controller, cfg ServeConfig) error {
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	s := &session{ctrl: ctrl, cfg: cfg, events: log.OrNoop(cfg.ProtocolLogger)}

	if closer, ok := conn.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { closer.Close() })
		defer stop()
	}

	for {
		data, err := conn.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		resp := s.handle(ctx, data)
		if resp == nil {
			continue
		}
		out, err := wire.EncodeResponse(resp)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		if err := conn.WriteFrame(out); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		s.logMessage(log.DirectionOut, log.ResponseEvent(resp, 0))
	}
}

// Handler adapts ServeConn to a transport.Server. Each connection's id
// replaces cfg.ConnectionID.
func Handler(ctrl Controller, cfg ServeConfig) transport.Handler {
	return func(ctx context.Context, conn *transport.Conn) {
		c := cfg
		c.ConnectionID = conn.ID()
		if c.Log != nil {
			c.Log = c.Log.With("conn", conn.ID())
		}
		if err := ServeConn(ctx, conn, ctrl, c); err != nil && ctx.Err() == nil {
			if c.Log != nil {
				c.Log.Warn("plugin session ended", "error", err)
			}
		}
	}
}

type session struct {
	ctrl   Controller
	cfg    ServeConfig
	events log.Logger
}

// handle returns nil when the frame cannot be answered because it carries
// no usable message id.
func (s *session) handle(ctx context.Context, data []byte) *wire.Response {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		var hdr struct {
			MessageID uint32 `cbor:"1,keyasint"`
		}
		if wire.Unmarshal(data, &hdr) != nil || hdr.MessageID == 0 {
			s.cfg.Log.Warn("dropping malformed request", "error", err)
			return nil
		}
		return wire.ErrorResponse(hdr.MessageID, fmt.Errorf("%w: %v", hserr.ErrInvalidArgument, err))
	}
	s.logMessage(log.DirectionIn, log.RequestEvent(req))

	start := time.Now()
	ref, err := s.dispatch(ctx, req)
	if err != nil {
		s.cfg.Log.Debug("request failed", "op", req.Operation.String(), "msg_id", req.MessageID, "error", err)
		return wire.ErrorResponse(req.MessageID, err)
	}
	s.cfg.Log.Debug("request served", "op", req.Operation.String(), "ref", ref, "took", time.Since(start))
	return &wire.Response{MessageID: req.MessageID, Status: wire.StatusSuccess, Ref: ref}
}

func (s *session) dispatch(ctx context.Context, req *wire.Request) (int, error) {
	changes, err := wire.DecodeChanges(req.Changes)
	if err != nil {
		return 0, err
	}

	switch req.Operation {
	case wire.OpCreateDevice:
		data := &factory.NewDeviceData{Changes: changes}
		for i, rf := range req.Features {
			fc, err := wire.DecodeChanges(rf)
			if err != nil {
				return 0, fmt.Errorf("feature %d: %w", i, err)
			}
			data.Features = append(data.Features, fc)
		}
		return s.ctrl.CreateDevice(ctx, data)
	case wire.OpCreateFeature:
		return s.ctrl.CreateFeature(ctx, &factory.NewFeatureData{Changes: changes})
	case wire.OpUpdate:
		return req.Ref, s.ctrl.UpdateEntity(ctx, req.Ref, changes)
	default:
		return 0, fmt.Errorf("%w: operation %d", hserr.ErrInvalidOperation, req.Operation)
	}
}

func (s *session) logMessage(dir log.Direction, msg *log.MessageEvent) {
	s.events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.cfg.ConnectionID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleController,
		Message:      msg,
	})
}
