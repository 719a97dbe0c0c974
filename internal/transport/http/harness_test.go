package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/infra/memory"
)

const sampleQuiz = `{
	"title": "Capitals",
	"fill_in_the_blanks": [{"question": "The capital of France is ___", "answer": "Paris"}],
	"true_false": [{"question": "Berlin is in Germany", "answer": true}],
	"mcqs": [{"question": "Capital of Italy?", "options": ["Milan", "Rome"], "answer": "Rome"}]
}`

type harness struct {
	server *httptest.Server
	admin  *app.AdminService
}

func newHarness(t *testing.T, loginRate int) *harness {
	t.Helper()
	catalog := memory.NewCatalog()
	results := memory.NewResultStore()
	users := memory.NewUserStore()
	boards := memory.NewBoardStore()
	settings := app.NewSettingsStore(app.Settings{MaxAttempts: 2, PassMark: 70})
	quizzes := memory.NewQuizRepository(catalog, time.Minute)

	grading := app.NewGradingService(quizzes, catalog, results, users, memory.NewPairLocker(), settings,
		app.WithBoards(boards))
	admin := app.NewAdminService(app.AdminDeps{
		Catalog:  catalog,
		Quizzes:  quizzes,
		Results:  results,
		Users:    users,
		Settings: settings,
		Boards:   boards,
	})
	auth := app.NewAuthService(users, app.AdminAccount{Username: "admin", Password: "secret"}, "test-secret", time.Hour)

	srv := httptest.NewServer(NewRouter(Deps{Grading: grading, Admin: admin, Auth: auth, LoginRate: loginRate}))
	t.Cleanup(srv.Close)
	return &harness{server: srv, admin: admin}
}

func (h *harness) login(t *testing.T, user, pass string) string {
	t.Helper()
	var tok app.Token
	resp := h.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": user, "password": pass}, &tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", user, resp.StatusCode)
	}
	return tok.AccessToken
}

// do sends body as JSON (or raw bytes) and decodes the response into out when non-nil.
func (h *harness) do(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	case url.Values:
		buf.WriteString(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp
}

// seed uploads sampleQuiz and creates student "alice" through the API.
func (h *harness) seed(t *testing.T) (adminToken, studentToken, quizID string) {
	t.Helper()
	adminToken = h.login(t, "admin", "secret")

	var uploaded app.UploadResult
	if resp := h.do(t, http.MethodPost, "/admin/quizzes", adminToken, []byte(sampleQuiz), &uploaded); resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	student := map[string]string{"studentId": "alice", "password": "pass1234"}
	if resp := h.do(t, http.MethodPost, "/admin/students", adminToken, student, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create student: status %d", resp.StatusCode)
	}
	return adminToken, h.login(t, "alice", "pass1234"), uploaded.Quiz.ID
}
