package controller

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/log"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/transport"
	"github.com/hspi-sdk/hspi-go/pkg/wire"
)

// pipeConn is a framed end of a net.Pipe that can be closed.
type pipeConn struct {
	*transport.Framer
	closer io.Closer
}

func (p pipeConn) Close() error { return p.closer.Close() }

func newPipe() (pipeConn, pipeConn) {
	a, b := net.Pipe()
	return pipeConn{transport.NewFramer(a), a}, pipeConn{transport.NewFramer(b), b}
}

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) messages() []*log.MessageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*log.MessageEvent
	for _, e := range r.events {
		if e.Message != nil {
			out = append(out, e.Message)
		}
	}
	return out
}

// servedClient connects a Client to ServeConn backed by a Memory.
func servedClient(t *testing.T, cfg ClientConfig) (*Client, *Memory) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	plugin, ctrlEnd := newPipe()
	mem := NewMemory(MemoryConfig{})

	served := make(chan error, 1)
	go func() { served <- ServeConn(ctx, ctrlEnd, mem, ServeConfig{}) }()

	client := NewClient(plugin, cfg)
	t.Cleanup(func() {
		client.Close()
		cancel()
		<-served
	})
	return client, mem
}

func TestClientCreateDeviceAndPush(t *testing.T) {
	rec := &recorder{}
	client, mem := servedClient(t, ClientConfig{PluginID: pluginID, ProtocolLogger: rec})
	ctx := context.Background()

	devRef, err := client.CreateDevice(ctx, dimmerDevice(t))
	require.NoError(t, err)

	feats, err := mem.FeaturesOf(devRef)
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, "42%", feats[0].DisplayedStatus(42), "controls survive the wire")
	assert.Equal(t, "Dark", feats[0].DisplayedStatus(0))

	feat := feats[0]
	feat.SetValue(75)
	require.NoError(t, Push(ctx, client, feat))
	assert.False(t, feat.HasChanges())

	stored, err := mem.Feature(feat.Ref())
	require.NoError(t, err)
	assert.Equal(t, 75.0, stored.Value())

	msgs := rec.messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, log.MessageTypeRequest, msgs[0].Type)
	assert.Equal(t, 1, msgs[0].FeatureCount)
	assert.Equal(t, log.MessageTypeResponse, msgs[1].Type)
	assert.Equal(t, devRef, msgs[1].Ref)
	assert.NotNil(t, msgs[1].ProcessingTime)
	assert.Equal(t, feat.Ref(), msgs[2].Ref)
}

func TestClientCreateFeature(t *testing.T) {
	client, mem := servedClient(t, ClientConfig{})
	ctx := context.Background()

	devRef, err := client.CreateDevice(ctx, dimmerDevice(t))
	require.NoError(t, err)

	data, err := dimmerFeature().WithName("Second").PrepareForHsDevice(devRef)
	require.NoError(t, err)
	ref, err := client.CreateFeature(ctx, data)
	require.NoError(t, err)

	f, err := mem.Feature(ref)
	require.NoError(t, err)
	assert.Equal(t, "Second", f.Name())
	parent, _ := f.ParentDevice()
	assert.Equal(t, devRef, parent)
}

func TestClientErrorStatus(t *testing.T) {
	client, _ := servedClient(t, ClientConfig{})
	ctx := context.Background()

	err := client.UpdateEntity(ctx, 404, model.Changes{model.PropertyName: "ghost"})
	assert.ErrorIs(t, err, hserr.ErrNotFound)

	devRef, err := client.CreateDevice(ctx, dimmerDevice(t))
	require.NoError(t, err)
	err = client.UpdateEntity(ctx, devRef, model.Changes{model.PropertyRelationship: model.RelationshipFeature})
	assert.ErrorIs(t, err, hserr.ErrRelationshipConflict)

	err = client.UpdateEntity(ctx, devRef, model.Changes{model.PropertyName: 1})
	assert.ErrorIs(t, err, hserr.ErrInvalidArgument, "rejected locally before sending")
}

func TestClientConcurrentRequests(t *testing.T) {
	client, mem := servedClient(t, ClientConfig{})
	ctx := context.Background()
	devRef, err := client.CreateDevice(ctx, dimmerDevice(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.UpdateEntity(ctx, devRef, model.Changes{model.PropertyUserNote: string(rune('a' + i))})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	dev, err := mem.Device(devRef)
	require.NoError(t, err)
	assert.NotEmpty(t, dev.UserNote())
}

// silentEnd reads and discards every frame.
func silentEnd(conn pipeConn) {
	for {
		if _, err := conn.ReadFrame(); err != nil {
			return
		}
	}
}

func TestClientTimeout(t *testing.T) {
	plugin, ctrlEnd := newPipe()
	go silentEnd(ctrlEnd)
	defer ctrlEnd.Close()

	client := NewClient(plugin, ClientConfig{Timeout: 50 * time.Millisecond})
	defer client.Close()

	err := client.UpdateEntity(context.Background(), 1, model.Changes{model.PropertyName: "x"})
	assert.ErrorIs(t, err, ErrRequestTimeout)
}

func TestClientContextCancelled(t *testing.T) {
	plugin, ctrlEnd := newPipe()
	go silentEnd(ctrlEnd)
	defer ctrlEnd.Close()

	client := NewClient(plugin, ClientConfig{})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := client.UpdateEntity(ctx, 1, model.Changes{model.PropertyName: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientLinkLost(t *testing.T) {
	plugin, ctrlEnd := newPipe()
	client := NewClient(plugin, ClientConfig{})
	defer client.Close()

	result := make(chan error, 1)
	go func() {
		result <- client.UpdateEntity(context.Background(), 1, model.Changes{model.PropertyName: "x"})
	}()

	// Take the request, then drop the link.
	_, err := ctrlEnd.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, ctrlEnd.Close())

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrClientClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("pending request not failed")
	}

	<-client.Done()
	_, err = client.CreateFeature(context.Background(), &factory.NewFeatureData{Changes: model.Changes{}})
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestServeConnAnswersMalformedRequest(t *testing.T) {
	plugin, ctrlEnd := newPipe()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- ServeConn(ctx, ctrlEnd, NewMemory(MemoryConfig{}), ServeConfig{}) }()

	bad, err := wire.Marshal(&wire.Request{MessageID: 5, Operation: wire.Operation(9)})
	require.NoError(t, err)
	require.NoError(t, plugin.WriteFrame(bad))

	data, err := plugin.ReadFrame()
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), resp.MessageID)
	assert.Equal(t, wire.StatusInvalidArgument, resp.Status)

	cancel()
	select {
	case err := <-served:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("ServeConn did not stop on cancel")
	}
}

func TestServeConnCleanEOF(t *testing.T) {
	plugin, ctrlEnd := newPipe()
	served := make(chan error, 1)
	go func() {
		served <- ServeConn(context.Background(), ctrlEnd.Framer, NewMemory(MemoryConfig{}), ServeConfig{})
	}()

	require.NoError(t, plugin.Close())
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeConn did not return on EOF")
	}
}

func TestClientOverTCP(t *testing.T) {
	mem := NewMemory(MemoryConfig{})
	srv, err := transport.NewServer(transport.ServerConfig{
		Address: "127.0.0.1:0",
		Handler: Handler(mem, ServeConfig{}),
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Dial(ctx, srv.Addr().String(), transport.DialConfig{})
	require.NoError(t, err)

	client := NewClient(conn, ClientConfig{PluginID: pluginID, ConnectionID: conn.ID()})
	defer client.Close()
	assert.Equal(t, conn.ID(), client.ConnectionID())

	ref, err := client.CreateDevice(ctx, dimmerDevice(t))
	require.NoError(t, err)
	_, err = mem.Device(ref)
	assert.NoError(t, err)
}
