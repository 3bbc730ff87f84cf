package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// WebSocket timeouts, following the gorilla chat example.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

func (s *Server) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{}
	if len(s.cfg.AllowedOrigins) > 0 {
		u.CheckOrigin = s.checkOrigin
	}
	return u
}

// checkOrigin accepts same-host requests and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// handleWS streams snapshots into a session. Every text message is one
// snapshot and gets one reply: {"ok":true,"pending":n} or
// {"error":...,"code":...}. The connection ends with the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "session", sess.id, "err", err)
		return
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go s.pingLoop(conn, sess, stop)

	conn.SetReadLimit(maxBodySize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	sess.opts.Logger.Debug("websocket connected", "remote", r.RemoteAddr)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				sess.opts.Logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		sess.touch(s.now())

		var reply renderReply
		if kind != websocket.TextMessage {
			reply = errorReply(errors.New(errors.ErrCodeInvalidInput, "expected a text message"))
		} else {
			reply = s.renderMessage(r, sess, data)
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			sess.opts.Logger.Debug("websocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) renderMessage(r *http.Request, sess *session, data []byte) renderReply {
	var raw graph.RawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return errorReply(errors.Wrap(errors.ErrCodeMalformedSnapshot, err, "snapshot is not valid JSON"))
	}
	reply, _ := s.render(r, sess, raw)
	return reply
}

// pingLoop keeps the connection alive and closes it when the session ends.
// WriteControl may run concurrently with the reader's writes.
func (s *Server) pingLoop(conn *websocket.Conn, sess *session, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-sess.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
