package wsrelay

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Envelope is the wire frame for every broadcast event: a name plus an
// opaque payload the relay never inspects.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Sender serializes writes to a single websocket connection. Gorilla
// connections do not support concurrent writers.
type Sender struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewSender(conn *websocket.Conn) *Sender {
	return &Sender{conn: conn}
}

func (s *Sender) Conn() *websocket.Conn {
	return s.conn
}

func (s *Sender) Send(env *Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(env)
}

func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Broadcast fans an envelope out to every sender except the originator.
// Delivery is best-effort: a failed write drops that receiver only, and
// the dead senders are returned so the caller can evict them.
func Broadcast(senders []*Sender, env *Envelope, except *Sender) []*Sender {
	var dead []*Sender
	for _, s := range senders {
		if s == except {
			continue
		}
		if err := s.Send(env); err != nil {
			dead = append(dead, s)
		}
	}

	return dead
}
