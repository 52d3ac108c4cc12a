// ABOUTME: End-to-end tests running the full server over real WebSocket connections
// ABOUTME: Covers the wire protocol, the subscribe gate, publish fan-out, and health routes

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prashcr/cheatsheet-server/internal/auth"
	"github.com/prashcr/cheatsheet-server/internal/config"
	"github.com/prashcr/cheatsheet-server/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.MockStore) {
	t.Helper()

	m := store.NewMockStore()
	hash, err := auth.HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, m.CreateUser(context.Background(), "alice", hash))

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Channels.PublishOnly = []string{"saveNote"}

	srv, err := NewWithStore(cfg, m, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, m
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	return ws
}

func sendFrame(t *testing.T, ws *websocket.Conn, event string, callID int64, data interface{}) {
	t.Helper()
	frame := map[string]interface{}{"event": event}
	if callID != 0 {
		frame["cid"] = callID
	}
	if data != nil {
		frame["data"] = data
	}
	require.NoError(t, ws.WriteJSON(frame))
}

// awaitReply reads frames until the reply for callID arrives, skipping any
// interleaved pushes.
func awaitReply(t *testing.T, ws *websocket.Conn, callID int64) (string, json.RawMessage) {
	t.Helper()
	for {
		var msg struct {
			CallID int64           `json:"rid"`
			Error  string          `json:"error"`
			Data   json.RawMessage `json:"data"`
		}
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.CallID == callID {
			return msg.Error, msg.Data
		}
	}
}

func wsLogin(t *testing.T, ws *websocket.Conn, username, password string) {
	t.Helper()
	sendFrame(t, ws, EventLogin, 1, map[string]string{"username": username, "password": password})
	errMsg, _ := awaitReply(t, ws, 1)
	require.Empty(t, errMsg, "login should succeed")
}

func TestE2E_LoginCreateSaveGet(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dialWS(t, ts)

	wsLogin(t, ws, "alice", "hunter2")

	sendFrame(t, ws, EventCreateNote, 2, nil)
	errMsg, data := awaitReply(t, ws, 2)
	require.Empty(t, errMsg)
	var note store.Note
	require.NoError(t, json.Unmarshal(data, &note))
	require.NotEmpty(t, note.ID)
	assert.Equal(t, store.DefaultNoteName, note.Name)

	sendFrame(t, ws, EventSaveNote, 3, map[string]string{"id": note.ID, "contents": "vim: :wq to save and quit"})
	errMsg, _ = awaitReply(t, ws, 3)
	require.Empty(t, errMsg)

	sendFrame(t, ws, EventGetNotes, 4, nil)
	errMsg, data = awaitReply(t, ws, 4)
	require.Empty(t, errMsg)
	var notes map[string]*store.Note
	require.NoError(t, json.Unmarshal(data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "vim: :wq to save and quit", notes[note.ID].Contents)
}

func TestE2E_UnauthenticatedEventRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dialWS(t, ts)

	sendFrame(t, ws, EventCreateNote, 1, nil)
	errMsg, _ := awaitReply(t, ws, 1)
	assert.Equal(t, "Not authenticated", errMsg)
}

func TestE2E_BadCredentials(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dialWS(t, ts)

	sendFrame(t, ws, EventLogin, 1, map[string]string{"username": "alice", "password": "wrong"})
	errMsg, _ := awaitReply(t, ws, 1)
	assert.Equal(t, "Login failed", errMsg)
}

func TestE2E_PublishOnlySubscribeRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dialWS(t, ts)
	wsLogin(t, ws, "alice", "hunter2")

	sendFrame(t, ws, EventSubscribe, 2, map[string]string{"channel": "saveNote"})
	errMsg, _ := awaitReply(t, ws, 2)
	require.NotEmpty(t, errMsg)
	assert.Contains(t, errMsg, "publish-only")
}

func TestE2E_PublishOnlyChannelStillAcceptsPublish(t *testing.T) {
	ts, _ := newTestServer(t)
	ws := dialWS(t, ts)
	wsLogin(t, ws, "alice", "hunter2")

	sendFrame(t, ws, EventPublish, 2, map[string]interface{}{
		"channel": "saveNote",
		"data":    map[string]string{"id": "n1"},
	})
	errMsg, _ := awaitReply(t, ws, 2)
	assert.Empty(t, errMsg)
}

func TestE2E_PublishFanOut(t *testing.T) {
	ts, _ := newTestServer(t)

	sub := dialWS(t, ts)
	sendFrame(t, sub, EventSubscribe, 1, map[string]string{"channel": "presence"})
	errMsg, _ := awaitReply(t, sub, 1)
	require.Empty(t, errMsg)

	pub := dialWS(t, ts)
	sendFrame(t, pub, EventPublish, 1, map[string]interface{}{
		"channel": "presence",
		"data":    map[string]string{"user": "alice", "state": "online"},
	})
	errMsg, _ = awaitReply(t, pub, 1)
	require.Empty(t, errMsg)

	var push Push
	require.NoError(t, sub.ReadJSON(&push))
	assert.Equal(t, EventPublish, push.Event)
	assert.Equal(t, "presence", push.Data.Channel)
	assert.JSONEq(t, `{"user":"alice","state":"online"}`, string(push.Data.Data))
}

func TestE2E_UnsubscribeStopsDelivery(t *testing.T) {
	ts, _ := newTestServer(t)

	sub := dialWS(t, ts)
	sendFrame(t, sub, EventSubscribe, 1, map[string]string{"channel": "presence"})
	errMsg, _ := awaitReply(t, sub, 1)
	require.Empty(t, errMsg)

	sendFrame(t, sub, EventUnsubscribe, 2, map[string]string{"channel": "presence"})
	errMsg, _ = awaitReply(t, sub, 2)
	require.Empty(t, errMsg)

	pub := dialWS(t, ts)
	sendFrame(t, pub, EventPublish, 1, map[string]interface{}{
		"channel": "presence",
		"data":    map[string]string{"user": "alice"},
	})
	errMsg, _ = awaitReply(t, pub, 1)
	require.Empty(t, errMsg)

	// The short deadline gives any stray push time to arrive; the read
	// must time out instead.
	require.NoError(t, sub.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var stray Push
	err := sub.ReadJSON(&stray)
	require.Error(t, err, "expected no push after unsubscribe, got %+v", stray)
}

func TestE2E_SessionNotTransferableAcrossConnections(t *testing.T) {
	ts, _ := newTestServer(t)

	first := dialWS(t, ts)
	wsLogin(t, first, "alice", "hunter2")

	second := dialWS(t, ts)
	sendFrame(t, second, EventGetNotes, 1, nil)
	errMsg, _ := awaitReply(t, second, 1)
	assert.Equal(t, "Not authenticated", errMsg)
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))

	resp2, err := http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
