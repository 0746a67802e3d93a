package transport

import (
	"context"
	"testing"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/log"
)

func startEchoServer(t *testing.T, logger log.Logger) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Address: "127.0.0.1:0",
		Logger:  logger,
		Handler: func(ctx context.Context, c *Conn) {
			for {
				data, err := c.ReadFrame()
				if err != nil {
					return
				}
				if err := c.WriteFrame(data); err != nil {
					return
				}
			}
		},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func TestNewServerRequiresHandler(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("expected error without handler")
	}
}

func TestServerEcho(t *testing.T) {
	logger := &captureLogger{}
	srv := startEchoServer(t, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, srv.Addr().String(), DialConfig{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if conn.ID() == "" {
		t.Error("connection id is empty")
	}

	conn.SetDeadline(time.Now().Add(5 * time.Second))
	for _, msg := range []string{"first", "second"} {
		if err := conn.WriteFrame([]byte(msg)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := conn.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if string(got) != msg {
			t.Errorf("echo = %q, want %q", got, msg)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.ConnectionCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.ConnectionCount() != 1 {
		t.Errorf("connection count = %d, want 1", srv.ConnectionCount())
	}

	var connected bool
	for _, e := range logger.snapshot() {
		if e.StateChange != nil && e.StateChange.NewState == StateConnected && e.LocalRole == log.RoleController {
			connected = true
		}
	}
	if !connected {
		t.Error("server did not log the connection")
	}
}

func TestServerStopClosesConnections(t *testing.T) {
	srv := startEchoServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, srv.Addr().String(), DialConfig{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteFrame([]byte("x")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := conn.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if srv.ConnectionCount() != 0 {
		t.Errorf("connection count after stop = %d", srv.ConnectionCount())
	}

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.ReadFrame(); err == nil {
		t.Error("expected read on closed link to fail")
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestDialRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, "127.0.0.1:1", DialConfig{}); err == nil {
		t.Error("expected dial error")
	}
}
