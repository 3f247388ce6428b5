package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestCourseResultsFeed(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/courses/1/results?access_token=" + env.token(t, instructor)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect subscribed event first.
	msgType, payload := readNext(conn, t, "subscribed")
	if payload["courseId"] != float64(1) {
		t.Fatalf("expected course 1, got %v (%s)", payload, msgType)
	}

	if status, body := env.do(t, &student, http.MethodPost, "/assessments/10/start", ""); status != http.StatusOK {
		t.Fatalf("start: %d %s", status, body)
	}
	if status, body := env.do(t, &student, http.MethodPost, "/assessments/10/submit", `{"answers":[{"questionId":1,"answerId":1},{"questionId":2,"answerId":3}]}`); status != http.StatusOK {
		t.Fatalf("submit: %d %s", status, body)
	}

	_, payload = readNext(conn, t, "attemptGraded")
	if payload["score"] != float64(50) || payload["passed"] != false || payload["userId"] != float64(student.UserID) {
		t.Fatalf("unexpected graded payload %v", payload)
	}
}

func TestCourseResultsFeedRejectsStudents(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/courses/1/results?access_token=" + env.token(t, student)
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
