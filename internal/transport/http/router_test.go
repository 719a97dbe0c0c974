package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/attempt"
)

func TestSubmitFlow(t *testing.T) {
	h := newHarness(t, 0)
	adminToken, token, quizID := h.seed(t)
	answers := map[string]string{"fib_0": "paris", "tf_0": "true", "mcq_0": "Rome"}

	var ticket app.AttemptTicket
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/attempts", token, nil, &ticket); resp.StatusCode != http.StatusOK {
		t.Fatalf("start attempt: status %d", resp.StatusCode)
	}
	if ticket.AttemptNumber != 1 || len(ticket.Quiz.MCQs) != 1 || ticket.Quiz.MCQs[0].Key != "mcq_0" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}

	var out app.Outcome
	body := map[string]any{"attempt": ticket.AttemptNumber, "answers": answers}
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/submit", token, body, &out); resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: status %d", resp.StatusCode)
	}
	if out.Status != app.StatusRecorded || out.Record.Score != 100 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	// Replaying the same ticket does not record a second attempt.
	var replay app.Outcome
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/submit", token, body, &replay); resp.StatusCode != http.StatusOK {
		t.Fatalf("replay: status %d", resp.StatusCode)
	}
	if replay.Status != app.StatusStale || replay.Record.ID != out.Record.ID {
		t.Fatalf("expected stale outcome pointing at first attempt, got %+v", replay)
	}

	var view app.ResultView
	if resp := h.do(t, http.MethodGet, "/results/"+out.Record.ID, token, nil, &view); resp.StatusCode != http.StatusOK {
		t.Fatalf("result: status %d", resp.StatusCode)
	}
	if view.AttemptNumber != 1 || !view.CanRetake || view.QuizTitle != "Capitals" {
		t.Fatalf("unexpected result view %+v", view)
	}
	if resp := h.do(t, http.MethodGet, "/admin/submissions/"+out.Record.ID, adminToken, nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin submission: status %d", resp.StatusCode)
	}

	body["attempt"] = 2
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/submit", token, body, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("second submit: status %d", resp.StatusCode)
	}
	var refused app.Outcome
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/attempts", token, nil, &refused); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected attempts exhausted, status %d", resp.StatusCode)
	}
	if refused.Status != app.StatusExhausted || refused.AttemptNumber != 2 {
		t.Fatalf("unexpected refusal %+v", refused)
	}

	var history []app.QuizHistory
	if resp := h.do(t, http.MethodGet, "/me/history", token, nil, &history); resp.StatusCode != http.StatusOK {
		t.Fatalf("history: status %d", resp.StatusCode)
	}
	if len(history) != 1 || len(history[0].Attempts) != 2 || history[0].CanAttempt || history[0].State != attempt.StateExhausted {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestSubmitFormPost(t *testing.T) {
	h := newHarness(t, 0)
	_, token, quizID := h.seed(t)

	form := url.Values{"fib_0": {"Paris"}, "tf_0": {"true"}, "mcq_0": {"Rome"}, "attempt": {"1"}, "csrf": {"ignored"}}
	var out app.Outcome
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/submit", token, form, &out); resp.StatusCode != http.StatusCreated {
		t.Fatalf("form submit: status %d", resp.StatusCode)
	}
	if out.Status != app.StatusRecorded || out.AttemptNumber != 1 || out.Record.Score != 100 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"fib_0": "Lyon", "tf_0": "false", "mcq_0": "Rome", "attempt": "2"} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/quizzes/"+quizID+"/submit", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("multipart submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("multipart submit: status %d", resp.StatusCode)
	}
	var second app.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.AttemptNumber != 2 || second.Record.Score != 33.33 {
		t.Fatalf("unexpected outcome %+v", second)
	}

	bad := url.Values{"attempt": {"two"}, "fib_0": {"Paris"}}
	if resp := h.do(t, http.MethodPost, "/quizzes/"+quizID+"/submit", token, bad, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad attempt to be rejected, status %d", resp.StatusCode)
	}
}

func TestAuthorization(t *testing.T) {
	h := newHarness(t, 0)
	adminToken, token, quizID := h.seed(t)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/me/history", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/me/history", "garbage", http.StatusUnauthorized},
		{"student on admin route", http.MethodGet, "/admin/quizzes", token, http.StatusForbidden},
		{"admin on student route", http.MethodPost, "/quizzes/" + quizID + "/attempts", adminToken, http.StatusForbidden},
		{"admin lists quizzes", http.MethodGet, "/admin/quizzes", adminToken, http.StatusOK},
		{"unknown quiz", http.MethodPost, "/quizzes/missing/attempts", token, http.StatusNotFound},
		{"unknown result", http.MethodGet, "/results/missing", token, http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if resp := h.do(t, c.method, c.path, c.token, nil, nil); resp.StatusCode != c.want {
				t.Fatalf("expected %d, got %d", c.want, resp.StatusCode)
			}
		})
	}

	if resp := h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope"}, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}
}

func TestAdminEndpoints(t *testing.T) {
	h := newHarness(t, 0)
	adminToken, _, quizID := h.seed(t)

	if resp := h.do(t, http.MethodPost, "/admin/quizzes", adminToken, []byte(`{"title": "x"`), nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed quiz, got %d", resp.StatusCode)
	}
	if resp := h.do(t, http.MethodPost, "/admin/quizzes", adminToken, []byte(`{"true_false": []}`), nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", resp.StatusCode)
	}
	student := map[string]string{"studentId": "alice", "password": "other123"}
	if resp := h.do(t, http.MethodPost, "/admin/students", adminToken, student, nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate student, got %d", resp.StatusCode)
	}

	var settings settingsResponse
	req := map[string]any{"maxAttempts": 4, "mailEnabled": true}
	if resp := h.do(t, http.MethodPut, "/admin/settings", adminToken, req, &settings); resp.StatusCode != http.StatusOK {
		t.Fatalf("update settings: status %d", resp.StatusCode)
	}
	if settings.MaxAttempts != 4 || settings.Warning == "" {
		t.Fatalf("unexpected settings %+v", settings)
	}
	req["maxAttempts"] = 0
	if resp := h.do(t, http.MethodPut, "/admin/settings", adminToken, req, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid settings, got %d", resp.StatusCode)
	}

	if resp := h.do(t, http.MethodDelete, "/admin/quizzes/"+quizID, adminToken, nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete quiz: status %d", resp.StatusCode)
	}
	if resp := h.do(t, http.MethodGet, "/admin/quizzes/"+quizID, adminToken, nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected deleted quiz gone, got %d", resp.StatusCode)
	}
}

func TestLoginRateLimit(t *testing.T) {
	h := newHarness(t, 2)
	creds := map[string]string{"username": "admin", "password": "wrong"}
	for i := 0; i < 2; i++ {
		if resp := h.do(t, http.MethodPost, "/auth/login", "", creds, nil); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}
	if resp := h.do(t, http.MethodPost, "/auth/login", "", creds, nil); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}
