package nodetest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/coder/websocket"
)

// Silent accepts websocket connections and reads requests without ever
// answering them, like a node that hung after the handshake.
type Silent struct {
	srv      *httptest.Server
	received atomic.Int64

	mu    sync.Mutex
	conns []*websocket.Conn
	once  sync.Once
}

// NewSilent starts a silent node and registers its shutdown with t.
func NewSilent(t testing.TB) *Silent {
	t.Helper()

	s := &Silent{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		s.track(conn)
		defer conn.CloseNow()

		ctx := context.Background()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
			s.received.Add(1)
		}
	}))

	t.Cleanup(s.Close)
	return s
}

// URL returns the websocket endpoint.
func (s *Silent) URL() string {
	return "ws://" + strings.TrimPrefix(s.srv.URL, "http://")
}

// Received returns how many messages were read.
func (s *Silent) Received() int64 {
	return s.received.Load()
}

// Close drops every connection and stops the server.
func (s *Silent) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		for _, c := range s.conns {
			c.CloseNow()
		}
		s.mu.Unlock()
		s.srv.Close()
	})
}

func (s *Silent) track(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = append(s.conns, c)
}
