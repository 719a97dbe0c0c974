package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
)

// WSHandler streams a quiz's live scoreboard to admins.
type WSHandler struct {
	grading  *app.GradingService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(grading *app.GradingService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		grading: grading,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Requests are authenticated by token before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type messagePayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades GET /admin/feed?quizId= and pushes "scoreboard" messages
// until either side closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeMessage(w, http.StatusBadRequest, "missing quizId")
		return
	}
	board, err := h.grading.Scoreboard(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := board.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					// Board closed, e.g. the quiz was deleted. The client's
					// close reply ends the read loop below.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scoreboard closed"),
						time.Now().Add(time.Second))
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "scoreboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: messagePayload{}}
		case "snapshot":
			reply = outboundMessage[any]{Type: "scoreboard", Payload: board.Snapshot()}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: messagePayload{Message: "unsupported message type"}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
