package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/maximeliseyev/construct-messenger/internal/logging"
)

// Server is the rendezvous point: it stores the latest published bundle per
// user, forwards packets to connected recipients over WebSocket and queues
// them in the mailbox otherwise.
type Server struct {
	mailbox  Mailbox
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	bundles map[string][]byte
	conns   map[string]*wsConn
}

// wsConn serialises writes; gorilla/websocket allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NewServer returns a relay server using the given mailbox.
func NewServer(mailbox Mailbox) *Server {
	return &Server{
		mailbox: mailbox,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		bundles: make(map[string][]byte),
		conns:   make(map[string]*wsConn),
	}
}

type registerRequest struct {
	User   string `json:"user"`
	Bundle []byte `json:"bundle"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/bundle/{user}", s.handleBundle).Methods(http.MethodGet)
	r.HandleFunc("/send", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/inbox/{user}", s.handleInbox).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	return r
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.User == "" || len(req.Bundle) == 0 {
		http.Error(w, "user and bundle required", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.bundles[req.User] = req.Bundle
	s.mu.Unlock()
	logging.Info("bundle registered", zap.String("user", req.User), zap.Int("bytes", len(req.Bundle)))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	s.mu.RLock()
	bundle, ok := s.bundles[user]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(registerRequest{User: user, Bundle: bundle})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var p Packet
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.To == "" || len(p.Envelope) == 0 {
		http.Error(w, "to and envelope required", http.StatusBadRequest)
		return
	}
	if p.Timestamp == 0 {
		p.Timestamp = time.Now().Unix()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.RLock()
	conn := s.conns[p.To]
	s.mu.RUnlock()
	if conn != nil {
		if err := conn.write(raw); err == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Dead connection; fall through to the mailbox and let the read
		// loop reap it.
		logging.Debug("websocket write failed, queueing", zap.String("to", p.To))
	}
	if err := s.mailbox.Enqueue(r.Context(), p.To, raw); err != nil {
		logging.Error("mailbox enqueue failed", zap.String("to", p.To), zap.Error(err))
		http.Error(w, "queue failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	raws, err := s.mailbox.Drain(r.Context(), user)
	if err != nil {
		logging.Error("mailbox drain failed", zap.String("user", user), zap.Error(err))
		http.Error(w, "drain failed", http.StatusInternalServerError)
		return
	}
	packets := make([]Packet, 0, len(raws))
	for _, raw := range raws {
		var p Packet
		if err := json.Unmarshal(raw, &p); err != nil {
			logging.Error("dropping corrupt queued packet", zap.String("user", user), zap.Error(err))
			continue
		}
		packets = append(packets, p)
	}
	_ = json.NewEncoder(w).Encode(packets)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "user required", http.StatusBadRequest)
		return
	}
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := &wsConn{conn: raw}

	s.mu.Lock()
	if old := s.conns[user]; old != nil {
		old.conn.Close()
	}
	s.conns[user] = conn
	s.mu.Unlock()
	logging.Info("websocket connected", zap.String("user", user))

	// Flush anything queued while the user was offline.
	if queued, err := s.mailbox.Drain(r.Context(), user); err == nil {
		for _, data := range queued {
			if err := conn.write(data); err != nil {
				_ = s.mailbox.Enqueue(r.Context(), user, data)
				break
			}
		}
	}

	go s.readLoop(user, conn)
}

// readLoop drains control frames until the peer goes away, then reaps the
// connection.
func (s *Server) readLoop(user string, conn *wsConn) {
	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			break
		}
	}
	s.mu.Lock()
	if s.conns[user] == conn {
		delete(s.conns, user)
	}
	s.mu.Unlock()
	conn.conn.Close()
	logging.Debug("websocket closed", zap.String("user", user))
}
