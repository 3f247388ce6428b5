package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WSHandler streams a course's graded attempts to its managers.
type WSHandler struct {
	grading  *app.GradingService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(grading *app.GradingService, log *zap.Logger) *WSHandler {
	return &WSHandler{
		grading: grading,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	CourseID int64 `json:"courseId"`
}

// ServeResults authorizes before upgrading, so refusals are plain HTTP errors.
func (h *WSHandler) ServeResults(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	courseID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, statusFor(err), errorBody{Detail: err.Error()})
		return
	}

	events, cancel, err := h.grading.SubscribeCourseResults(r.Context(), caller, courseID)
	if err != nil {
		status := statusFor(err)
		detail := err.Error()
		if status == http.StatusInternalServerError {
			h.log.Error("subscribe course results", zap.Int64("course_id", courseID), zap.Error(err))
			detail = http.StatusText(status)
		}
		writeJSON(w, status, errorBody{Detail: detail})
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// reader: only pongs and close frames are expected from the client
	readerDone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msg any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}
	if err := write(outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{CourseID: courseID}}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if err := write(outboundMessage[domain.AttemptGraded]{Type: "attemptGraded", Payload: event}); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}
