package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/game"
	"github.com/race/roadrush/internal/network"
	"github.com/race/roadrush/internal/sessions"
	"github.com/race/roadrush/internal/storage"
)

func newTestServer(t *testing.T, max int) (*GameServer, *httptest.Server) {
	t.Helper()
	manager := sessions.NewManager(zerolog.Nop(), storage.NewMemory(), config.DefaultSettings(), nil, max)
	t.Cleanup(manager.Close)

	gs := NewGameServer(config.DefaultServerConfig(), zerolog.Nop(), manager)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gs.handleWebSocket)
	mux.HandleFunc("/health", gs.handleHealth)
	mux.HandleFunc("/stats", gs.handleStats)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return gs, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readType(t *testing.T, ws *websocket.Conn, want uint8) []byte {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, msg, err := ws.ReadMessage()
		require.NoError(t, err)
		if len(msg) > 0 && msg[0] == want {
			return msg
		}
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestWebSocketSession(t *testing.T) {
	gs, ts := newTestServer(t, 0)
	ws := dial(t, ts)
	p := network.NewProtocol()

	info, err := p.DecodeSessionInfo(readType(t, ws, network.MsgTypeSessionInfo))
	require.NoError(t, err)
	assert.NotEmpty(t, info.SessionID)
	assert.Equal(t, uint8(game.StateMenu), info.State)

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, p.EncodeCommand(network.CmdStart)))
	from, to, err := p.DecodeStateChange(readType(t, ws, network.MsgTypeStateChange))
	require.NoError(t, err)
	assert.Equal(t, uint8(game.StateMenu), from)
	assert.Equal(t, uint8(game.StatePlaying), to)

	_, err = p.DecodeStats(readType(t, ws, network.MsgTypeStats))
	require.NoError(t, err)

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, p.EncodePing(77)))
	assert.Equal(t, p.EncodePong(77), readType(t, ws, network.MsgTypePong))

	stats := gs.sessions.GetStats()
	assert.Equal(t, 1, stats.TotalSessions)

	// disconnect removes the session
	ws.Close()
	require.Eventually(t, func() bool {
		return gs.sessions.GetStats().TotalSessions == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketInvalidMessage(t *testing.T) {
	_, ts := newTestServer(t, 0)
	ws := dial(t, ts)
	p := network.NewProtocol()

	readType(t, ws, network.MsgTypeSessionInfo)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{0x7E}))

	msg, err := p.DecodeError(readType(t, ws, network.MsgTypeError))
	require.NoError(t, err)
	assert.Equal(t, network.ErrorCodeInvalidMessage, msg.Code)
}

func TestWebSocketServerFull(t *testing.T) {
	_, ts := newTestServer(t, 1)
	p := network.NewProtocol()

	first := dial(t, ts)
	readType(t, first, network.MsgTypeSessionInfo)

	second := dial(t, ts)
	msg, err := p.DecodeError(readType(t, second, network.MsgTypeError))
	require.NoError(t, err)
	assert.Equal(t, network.ErrorCodeServerFull, msg.Code)
}
