package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagepack-viewer/internal/config"
	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/types"
)

func testFrame(w, h int) *processing.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return &processing.Frame{Image: img, ViewWidths: [2]int{w / 2, w - w/2}}
}

func TestHandleConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Port = 9999
	cfg.TargetHeight = 300
	srv := New(cfg, nil, nil, nil)

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, float64(300), payload["target_height"])
	assert.Equal(t, float64(9999), payload["port"])
	assert.Equal(t, "50ms", payload["delay"])
}

func TestHandleStatus(t *testing.T) {
	srv := New(config.Defaults(), nil, func() map[string]any {
		return map[string]any{"stage": "idle", "metrics": map[string]any{"frames_presented_total": 3}}
	}, nil)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest("GET", "/status", nil))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "idle", payload["stage"])
	metrics := payload["metrics"].(map[string]any)
	assert.Equal(t, float64(3), metrics["frames_presented_total"])
	assert.Equal(t, float64(0), metrics["ws_clients"])
}

func TestFrameEndpoint(t *testing.T) {
	srv := New(config.Defaults(), nil, nil, nil)
	handler, err := srv.Handler()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/frame.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, srv.Show(testFrame(12, 4)))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/frame.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 4), img.Bounds())
}

func TestIndexAndHealth(t *testing.T) {
	srv := New(config.Defaults(), nil, nil, nil)
	handler, err := srv.Handler()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imagepack viewer")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPollKeyEmpty(t *testing.T) {
	srv := New(config.Defaults(), nil, nil, nil)
	_, ok := srv.PollKey()
	assert.False(t, ok)
}

func TestWebsocketFramesAndKeys(t *testing.T) {
	srv := New(config.Defaults(), nil, nil, func() types.UIConfig {
		return types.UIConfig{Type: "config", TargetHeight: 400, Endpoint: "inproc://test"}
	})
	handler, err := srv.Handler()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.broadcast(ctx)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var cfg types.UIConfig
	require.NoError(t, conn.ReadJSON(&cfg))
	assert.Equal(t, "config", cfg.Type)
	assert.Equal(t, "inproc://test", cfg.Endpoint)
	assert.Equal(t, 1, srv.clientCount())

	require.NoError(t, srv.Show(testFrame(8, 2)))
	messageType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	img, err := png.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "key", "key": "q"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "snapshot_request"}))

	var keys []string
	require.Eventually(t, func() bool {
		if key, ok := srv.PollKey(); ok {
			keys = append(keys, key)
		}
		return len(keys) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"q", "k"}, keys)
}

func dialViewer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	handler, err := srv.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var cfg types.UIConfig
	require.NoError(t, conn.ReadJSON(&cfg))
	return conn
}

func TestPublishStats(t *testing.T) {
	srv := New(config.Defaults(), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.broadcast(ctx)
	conn := dialViewer(t, srv)

	srv.Publish(types.StatsMessage{Type: "stats", Stats: types.FrameStats{Sequence: 3, Width: 16, Height: 4, FPS: 20}})

	messageType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	var msg types.StatsMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "stats", msg.Type)
	assert.Equal(t, uint64(3), msg.Stats.Sequence)
	assert.Equal(t, 20.0, msg.Stats.FPS)
}

func TestSlowClientDoesNotBlockRegistry(t *testing.T) {
	srv := New(config.Defaults(), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.broadcast(ctx)
	conn := dialViewer(t, srv)

	srv.mu.Lock()
	var stalled *client
	for _, c := range srv.clients {
		stalled = c
	}
	srv.mu.Unlock()
	require.NotNil(t, stalled)

	stalled.writeMu.Lock()
	require.NoError(t, srv.Show(testFrame(4, 2)))
	time.Sleep(50 * time.Millisecond)

	counted := make(chan int, 1)
	go func() { counted <- srv.clientCount() }()
	select {
	case n := <-counted:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("client registry blocked behind a pending frame write")
	}
	stalled.writeMu.Unlock()

	messageType, _, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
}
