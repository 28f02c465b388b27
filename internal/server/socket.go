package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hyperjump/qsim/internal/models"
	"go.uber.org/zap"
)

const (
	socketWriteWait = 10 * time.Second
	socketIdleWait  = 2 * time.Hour
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts clients that send no Origin (CLIs, scripts) and browser
// pages served from the host the request was addressed to.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// socketMessage is one server-to-client frame on the rank socket.
type socketMessage struct {
	Type   string         `json:"type"` // "report" or "error"
	Report *models.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// handleRankSocket answers every RankQuery frame with a report frame. Bad
// frames get an error frame and the socket stays open.
func (s *Server) handleRankSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(socketIdleWait)); err != nil {
			s.logger.Warn("websocket set read deadline", zap.Error(err))
			return
		}
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		var query models.RankQuery
		if err := json.Unmarshal(frame, &query); err != nil {
			err = errors.New("invalid request body")
			if !s.writeSocket(conn, socketMessage{Type: "error", Error: err.Error()}) {
				return
			}
			continue
		}
		if err := query.Validate(s.config.Ranking.TopK); err != nil {
			if !s.writeSocket(conn, socketMessage{Type: "error", Error: err.Error()}) {
				return
			}
			continue
		}

		report, err := s.ranker.Run(ctx, query.Query, query.TopK)
		msg := socketMessage{Type: "report", Report: report}
		if err != nil {
			s.logger.Error("rank failed", zap.Error(err))
			msg = socketMessage{Type: "error", Error: err.Error()}
		}
		if !s.writeSocket(conn, msg) {
			return
		}
	}
}

func (s *Server) writeSocket(conn *websocket.Conn, msg socketMessage) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(socketWriteWait)); err != nil {
		s.logger.Warn("websocket set write deadline", zap.Error(err))
		return false
	}
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
		return false
	}
	return true
}
