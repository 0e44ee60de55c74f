package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/docpersona/internal/workflow"
)

const (
	eventBuffer  = 16
	writeTimeout = 10 * time.Second
)

// handleEvents streams workflow states as JSON text frames. The current state
// is sent first, then every transition until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := make(chan workflow.State, eventBuffer)
	unsubscribe := s.ctrl.Subscribe(func(st workflow.State) {
		select {
		case events <- st:
		default:
			s.log.Warn("event stream lagging, dropping state", "status", st.Status, "run_id", st.RunID)
		}
	})
	defer unsubscribe()

	// Reads only detect close; clients send nothing meaningful.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("event stream read error", "error", err)
				}
				return
			}
		}
	}()

	if err := s.send(conn, s.ctrl.State()); err != nil {
		return
	}
	for {
		select {
		case st := <-events:
			if err := s.send(conn, st); err != nil {
				s.log.Debug("event stream write failed", "error", err)
				return
			}
		case <-done:
			return
		case <-s.runCtx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, st workflow.State) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(st)
}

// checkOrigin applies the CORS origin list to websocket upgrades. Requests
// without an Origin header are not from a browser and are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.cfg.CORSOrigins, "*") || slices.Contains(s.cfg.CORSOrigins, origin)
}
