package devstub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// writeWait bounds each outbound WebSocket write.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true }, // local dev stub
}

// hub fans pushed events out to connected WebSocket clients.
type hub struct {
	logger  *logging.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(logger *logging.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close() //nolint:errcheck // Client is gone either way
}

// broadcast pushes one typed event to every client. Payload fields are
// informational only; clients re-fetch rather than trusting them.
func (h *hub) broadcast(eventType string, payload map[string]any) {
	envelope := map[string]any{"type": eventType}
	for k, v := range payload {
		envelope[k] = v
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("encoding push event", "type", eventType, "error", err)
		return
	}

	// Writes happen under the lock: gorilla permits one concurrent writer
	// per connection, and the stub's volume does not justify per-client
	// send pumps.
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		//nolint:errcheck // A dead client is reaped below
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close() //nolint:errcheck // Already failing
		}
	}
}

// handleWebSocket authenticates via the ?token= parameter and parks the
// connection in the hub until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	if _, err := s.verifyToken(raw); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.hub.add(conn)
	s.logger.Debug("websocket client connected", "remote", conn.RemoteAddr())

	// Read loop: the stub only pushes, but reading drains control frames
	// and detects disconnects.
	go func() {
		defer s.hub.remove(conn)
		conn.SetPingHandler(func(appData string) error {
			return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
