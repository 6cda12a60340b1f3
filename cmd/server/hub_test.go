package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestHub_Broadcast(t *testing.T) {
	hub := newHub()
	srv := httptest.NewServer(routes(hub, t.TempDir()))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.len() == 2 }, time.Second, 10*time.Millisecond)

	hub.broadcastText([]byte(`{"stream":"front"}`))
	hub.broadcastBinary([]byte{1, 2, 3, 4})

	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))

		mt, data, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		assert.JSONEq(t, `{"stream":"front"}`, string(data))

		mt, data, err = c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, mt)
		assert.Equal(t, []byte{1, 2, 3, 4}, data)
	}
}

func TestHub_ConcurrentBroadcasters(t *testing.T) {
	hub := newHub()
	srv := httptest.NewServer(routes(hub, t.TempDir()))
	defer srv.Close()

	c := dial(t, srv)
	require.Eventually(t, func() bool { return hub.len() == 1 }, time.Second, 10*time.Millisecond)

	const perKind = 100
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perKind; i++ {
			hub.broadcastBinary([]byte{byte(i), 0, 0, 0})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perKind; i++ {
			hub.broadcastText([]byte(`{"stream":"front"}`))
		}
	}()

	counts := map[int]int{}
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 0; i < 2*perKind; i++ {
		mt, data, err := c.ReadMessage()
		require.NoError(t, err)
		counts[mt]++
		if mt == websocket.TextMessage {
			assert.JSONEq(t, `{"stream":"front"}`, string(data))
		} else {
			assert.Len(t, data, 4)
		}
	}
	wg.Wait()

	assert.Equal(t, perKind, counts[websocket.BinaryMessage])
	assert.Equal(t, perKind, counts[websocket.TextMessage])
	assert.Equal(t, 1, hub.len())
}

func TestHub_ClientLeaves(t *testing.T) {
	hub := newHub()
	srv := httptest.NewServer(routes(hub, t.TempDir()))
	defer srv.Close()

	c := dial(t, srv)
	require.Eventually(t, func() bool { return hub.len() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return hub.len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRoutes_Health(t *testing.T) {
	srv := httptest.NewServer(routes(newHub(), t.TempDir()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
