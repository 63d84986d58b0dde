package ws

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/internal/app"
)

func Init() {
	var cfg struct {
		Mod struct {
			Origin string `yaml:"origin"`
		} `yaml:"api"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("api")

	initWS(cfg.Mod.Origin)

	api.HandleFunc("api/ws", apiWS)
}

var log = zerolog.Nop()

// Message - struct for data exchange in Web API
type Message struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
	Raw   []byte `json:"-"`
}

func (m *Message) String() (value string) {
	_ = json.Unmarshal(m.Raw, &value)
	return
}

func (m *Message) Unmarshal(v any) error {
	return json.Unmarshal(m.Raw, v)
}

type WSHandler func(tr *Transport, msg *Message) error

func HandleFunc(msgType string, handler WSHandler) {
	handlersMu.Lock()
	wsHandlers[msgType] = handler
	handlersMu.Unlock()
}

func handler(msgType string) WSHandler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	return wsHandlers[msgType]
}

var wsHandlers = make(map[string]WSHandler)
var handlersMu sync.RWMutex

func initWS(origin string) {
	wsUp = &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 512 * 1024, // JPEG frames
	}

	switch origin {
	case "":
		wsUp.CheckOrigin = sameHost
	case "*":
		wsUp.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// sameHost allows requests without Origin and from the same host on any port
func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}

	log.Trace().Str("origin", u.Host).Str("host", r.Host).Msg("[api] ws origin")

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return u.Hostname() == host
}

func apiWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUp.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("origin", r.Header.Get("Origin")).Msg("[api] ws upgrade")
		return
	}

	tr := &Transport{Request: r}
	tr.OnWrite(func(msg any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

		if b, ok := msg.([]byte); ok {
			return conn.WriteMessage(websocket.BinaryMessage, b)
		}
		return conn.WriteJSON(msg)
	})

	for {
		msg, err := readMessage(conn)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
				log.Trace().Err(err).Msg("[api] ws read")
			}
			break
		}

		log.Trace().Str("type", msg.Type).Msg("[api] ws msg")

		h := handler(msg.Type)
		if h == nil {
			continue
		}

		// handlers may block on streaming, so each one gets a goroutine
		go func() {
			if err := h(tr, msg); err != nil {
				tr.Write(&Message{Type: "error", Value: msg.Type + ": " + err.Error()})
			}
		}()
	}

	_ = conn.Close()
	tr.Close()
}

func readMessage(conn *websocket.Conn) (*Message, error) {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := conn.ReadJSON(&raw); err != nil {
		return nil, err
	}
	return &Message{Type: raw.Type, Raw: raw.Value}, nil
}

var wsUp *websocket.Upgrader

// Transport is one websocket client, writes are serialized
type Transport struct {
	Request *http.Request

	closed bool
	mx     sync.Mutex
	wrmx   sync.Mutex

	onWrite func(msg any) error
	onClose []func()
}

func (t *Transport) OnWrite(f func(msg any) error) {
	t.mx.Lock()
	t.onWrite = f
	t.mx.Unlock()
}

// Write sends []byte as a binary message and anything else as JSON
func (t *Transport) Write(msg any) {
	_ = t.WriteErr(msg)
}

func (t *Transport) WriteErr(msg any) error {
	t.mx.Lock()
	f := t.onWrite
	t.mx.Unlock()

	if f == nil {
		return nil
	}

	t.wrmx.Lock()
	defer t.wrmx.Unlock()
	return f(msg)
}

func (t *Transport) Close() {
	t.mx.Lock()
	fs := t.onClose
	t.onClose = nil
	t.closed = true
	t.mx.Unlock()

	for _, f := range fs {
		f()
	}
}

func (t *Transport) Closed() bool {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.closed
}

func (t *Transport) OnClose(f func()) {
	t.mx.Lock()
	if !t.closed {
		t.onClose = append(t.onClose, f)
		t.mx.Unlock()
		return
	}
	t.mx.Unlock()
	f()
}
