package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hspi-sdk/hspi-go/pkg/log"
)

// DefaultPort is the controller's plugin port.
const DefaultPort = 10400

// Handler serves one accepted connection. The server closes conn when the
// handler returns; ctx is cancelled on Stop.
type Handler func(ctx context.Context, conn *Conn)

// ServerConfig configures the controller side of the link.
type ServerConfig struct {
	// Address to listen on, defaults to ":10400".
	Address string

	// MaxMessageSize defaults to DefaultMaxMessageSize.
	MaxMessageSize uint32

	// Logger receives frame and state events (optional).
	Logger log.Logger

	// Log is the operational logger (optional).
	Log *slog.Logger

	Handler Handler
}

// Server accepts plugin connections.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*Conn]struct{}
	connsMu sync.Mutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer validates config and applies defaults.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Handler == nil {
		return nil, errors.New("server needs a handler")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.Log == nil {
		config.Log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		config: config,
		conns:  make(map[*Conn]struct{}),
	}, nil
}

// Start listens and begins accepting connections in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)
	s.config.Log.Info("controller listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every open connection, then waits for the
// handlers to return.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	err := s.listener.Close()

	s.connsMu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.config.Log.Warn("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go s.serve(nc)
	}
}

func (s *Server) serve(nc net.Conn) {
	defer s.wg.Done()

	c := newConn(nc, s.config.MaxMessageSize, s.config.Logger, log.RoleController)
	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()
	s.config.Log.Debug("plugin connected", "conn", c.ID(), "remote", nc.RemoteAddr().String())

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, c)
		s.connsMu.Unlock()
		c.Close()
		s.config.Log.Debug("plugin disconnected", "conn", c.ID())
	}()

	s.config.Handler(s.ctx, c)
}
