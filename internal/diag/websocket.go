// Package diag exposes a push-only WebSocket feed of tick-engine telemetry
// for local tooling. It accepts no input and changes no program state: a
// connected client cannot configure or control anything through it.
package diag

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "ledctl/internal/log"
)

// Snapshot is one tick's worth of telemetry pushed to connected clients.
type Snapshot struct {
	TickLagMillis float64   `json:"tick_lag_ms"`
	Bins          []float64 `json:"bins,omitempty"`
	MaxFrequency  float64   `json:"max_frequency"`
	StripCount    int       `json:"strip_count"`
	DroppedChunks uint64    `json:"dropped_chunks"`
}

// Broadcaster runs an HTTP server exposing a single WebSocket endpoint
// that streams Snapshot values to every connected client.
type Broadcaster struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan Snapshot
	server    *http.Server
}

// NewBroadcaster creates a Broadcaster listening on addr (e.g. ":8080")
// at the /diagnostics path. The caller must call Start to begin serving.
func NewBroadcaster(addr string) *Broadcaster {
	return &Broadcaster{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Snapshot, 256),
	}
}

// Start begins serving the WebSocket endpoint and the broadcast loop in
// background goroutines.
func (b *Broadcaster) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/diagnostics", b.handleWebSocket)

	b.server = &http.Server{Addr: b.addr, Handler: mux}

	go func() {
		applog.Infof("diag: serving telemetry on %s/diagnostics", b.addr)
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("diag: server error: %v", err)
		}
	}()

	go b.handleBroadcasts()
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("diag: upgrade error: %v", err)
		return
	}

	b.clientsMu.Lock()
	b.clients[conn] = true
	count := len(b.clients)
	b.clientsMu.Unlock()
	applog.Infof("diag: client connected, total: %d", count)

	go func() {
		// A push-only feed has nothing to read; this goroutine exists
		// only to notice the peer closing the connection.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.clientsMu.Lock()
				delete(b.clients, conn)
				count := len(b.clients)
				b.clientsMu.Unlock()
				conn.Close()
				applog.Infof("diag: client disconnected, total: %d", count)
				return
			}
		}
	}()
}

func (b *Broadcaster) handleBroadcasts() {
	for snap := range b.broadcast {
		b.clientsMu.Lock()
		for client := range b.clients {
			if err := client.WriteJSON(snap); err != nil {
				applog.Warnf("diag: write to client failed: %v", err)
				client.Close()
				delete(b.clients, client)
			}
		}
		b.clientsMu.Unlock()
	}
}

// Push enqueues a snapshot for broadcast, dropping it if the broadcast
// buffer is already full rather than blocking the tick engine.
func (b *Broadcaster) Push(snap Snapshot) {
	select {
	case b.broadcast <- snap:
	default:
	}
}

// Close shuts down all client connections and the HTTP server.
func (b *Broadcaster) Close() error {
	b.clientsMu.Lock()
	for client := range b.clients {
		client.Close()
	}
	b.clients = make(map[*websocket.Conn]bool)
	b.clientsMu.Unlock()

	if b.server != nil {
		return b.server.Close()
	}
	return nil
}
