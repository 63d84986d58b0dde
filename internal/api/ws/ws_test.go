package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T) *websocket.Conn {
	initWS("*")

	srv := httptest.NewServer(http.HandlerFunc(apiWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHandlers(t *testing.T) {
	HandleFunc("test/echo", func(tr *Transport, msg *Message) error {
		tr.Write(&Message{Type: "test/echo", Value: msg.String()})
		return nil
	})
	HandleFunc("test/fail", func(tr *Transport, msg *Message) error {
		return errors.New("boom")
	})
	HandleFunc("test/binary", func(tr *Transport, msg *Message) error {
		tr.Write([]byte{0xFF, 0xD8})
		return nil
	})

	conn := dial(t)

	var msg struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "test/echo", "value": "hello"}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "test/echo", msg.Type)
	require.Equal(t, "hello", msg.Value)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "test/fail"}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
	require.Equal(t, "test/fail: boom", msg.Value)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "test/binary"}))
	typ, b, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, typ)
	require.Equal(t, []byte{0xFF, 0xD8}, b)
}

func TestTransportClose(t *testing.T) {
	closed := make(chan struct{})
	HandleFunc("test/close", func(tr *Transport, msg *Message) error {
		tr.OnClose(func() { close(closed) })
		tr.Write(&Message{Type: "test/close"})
		return nil
	})

	conn := dial(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "test/close"}))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.NoError(t, conn.Close())

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "transport not closed")
	}

	var tr Transport
	tr.Close()
	require.True(t, tr.Closed())

	called := false
	tr.OnClose(func() { called = true })
	require.True(t, called)

	// no writer yet
	require.NoError(t, tr.WriteErr(&Message{Type: "noop"}))
}

func TestSameHost(t *testing.T) {
	r := httptest.NewRequest("GET", "http://zed.local:1984/api/ws", nil)
	require.True(t, sameHost(r))

	r.Header.Set("Origin", "http://zed.local:1984")
	require.True(t, sameHost(r))

	r.Header.Set("Origin", "http://zed.local:8080")
	require.True(t, sameHost(r))

	r.Header.Set("Origin", "http://other.local:1984")
	require.False(t, sameHost(r))
}
