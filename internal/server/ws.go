package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/complications/internal/console"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 5 * time.Second

	// maxMessageBytes caps an inbound input message.
	maxMessageBytes = 1 << 10
)

// ViewMessage is what the server pushes to a websocket client.
type ViewMessage struct {
	Type    string       `json:"type"`
	Session string       `json:"session"`
	View    console.View `json:"view"`
}

// handleWebsocket upgrades the connection, then runs a writer goroutine that
// pushes views and reads input messages until the client goes away.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	session := s.newID()
	log := s.log.With("session", session)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	views, unsubscribe := s.loop.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeViews(conn, session, views)
	}()

	defer func() {
		unsubscribe()
		<-done
		conn.Close()
		log.Info("websocket disconnected")
	}()

	conn.SetReadLimit(maxMessageBytes)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read failed", "error", err)
			}
			return
		}

		var in console.Input
		if err := json.Unmarshal(payload, &in); err != nil {
			log.Debug("discarding malformed message", "error", err)
			continue
		}
		if in.Kind == "" {
			log.Debug("discarding message without type")
			continue
		}
		if !s.loop.Enqueue(in) {
			return
		}
	}
}

// writeViews sends each view whose content changed since the last one sent.
// The logical timestamp alone advancing does not count as a change.
func (s *Server) writeViews(conn *websocket.Conn, session string, views <-chan console.View) {
	var last []byte
	for v := range views {
		key := v
		key.AtMs = 0
		b, err := json.Marshal(key)
		if err != nil {
			s.log.Error("failed to marshal view", "session", session, "error", err)
			continue
		}
		if bytes.Equal(b, last) {
			continue
		}
		last = b

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ViewMessage{Type: "view", Session: session, View: v}); err != nil {
			s.log.Debug("websocket write failed", "session", session, "error", err)
			// Unblock the reader so the handler cleans up.
			conn.Close()
			return
		}
	}
}
