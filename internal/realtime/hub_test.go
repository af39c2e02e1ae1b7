package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func quietHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHubBroadcastAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	a := &Client{ID: "a", hub: h, send: make(chan []byte, 4)}
	b := &Client{ID: "b", hub: h, send: make(chan []byte, 4)}
	require.True(t, h.join(a))
	require.True(t, h.join(b))
	assert.Equal(t, 2, h.Clients())

	h.Notify(ctx, "product.created", "p1")

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			var ev Event
			require.NoError(t, json.Unmarshal(msg, &ev))
			assert.Equal(t, "product.created", ev.Type)
			assert.Equal(t, "p1", ev.ProductID)
		case <-time.After(time.Second):
			t.Fatalf("client %s got no event", c.ID)
		}
	}

	h.leave(a)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	_, open := <-b.send
	assert.False(t, open, "send channel should be closed on shutdown")
	assert.False(t, h.join(&Client{ID: "late", hub: h, send: make(chan []byte)}))
}

func TestHubDropsSlowClient(t *testing.T) {
	h := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	slow := &Client{ID: "slow", hub: h, send: make(chan []byte)}
	require.True(t, h.join(slow))

	h.Notify(ctx, "product.deleted", "p2")
	require.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestNotifyWithoutRunDoesNotBlock(t *testing.T) {
	h := quietHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.broadcast)+10; i++ {
			h.Notify(context.Background(), "product.created", "p")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
}

func TestServeWebsocket(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := quietHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	srv := httptest.NewServer(http.HandlerFunc(h.Serve))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)
	h.Notify(ctx, "product.skus_updated", "p9")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "product.skus_updated", ev.Type)
	assert.Equal(t, "p9", ev.ProductID)
	assert.False(t, ev.At.IsZero())

	conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	srv.Close()
}
