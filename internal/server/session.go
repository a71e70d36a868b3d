package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Session is one connected client: an anonymous socket until player:join,
// optionally bound to one character after character:select, optionally
// flagged as an admin observer via admin:join.
type Session struct {
	id      string
	conn    *websocket.Conn
	srv     *Server
	logger  *zap.Logger
	limiter *TokenBucket

	send chan []byte

	username    string
	accountID   string
	characterID string
	isAdmin     bool
}

func newSession(srv *Server, conn *websocket.Conn) *Session {
	return &Session{
		id:      uuid.NewString(),
		conn:    conn,
		srv:     srv,
		logger:  srv.logger,
		limiter: NewTokenBucket(20, 5),
		send:    make(chan []byte, 64),
	}
}

// run blocks for the lifetime of the connection, running the write pump on
// its own goroutine and the read pump on the caller's, per the teacher's
// upgrade-then-pump-pair shape.
func (s *Session) run() {
	go s.writePump()
	s.readPump()
}

func (s *Session) readPump() {
	defer s.cleanup()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if !s.limiter.Allow() {
			s.sendError("rate limit exceeded")
			continue
		}
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError("malformed message")
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.conn.Close()

	for {
		select {
		case b, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) cleanup() {
	s.srv.onDisconnect(s)
	close(s.send)
}

func (s *Session) sendRaw(msgType string, payload any) {
	b, err := encode(msgType, payload)
	if err != nil {
		s.logger.Error("encode outbound message", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case s.send <- b:
	default:
		s.logger.Warn("session send buffer full, dropping message", zap.String("session", s.id), zap.String("type", msgType))
	}
}

func (s *Session) sendError(message string) {
	s.sendRaw(msgGameError, gameErrorPayload{Message: message})
}
