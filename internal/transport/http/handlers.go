package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
)

const maxUploadBytes = 1 << 20

type handlers struct {
	grading *app.GradingService
	admin   *app.AdminService
	auth    *app.AuthService
	logger  *zap.Logger
}

func currentUser(r *http.Request) domain.AuthenticatedUser {
	u, _ := UserFromContext(r.Context())
	return u
}

// POST /auth/login {"username": "...", "password": "..."}
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	tok, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	out, err := h.grading.History(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) startAttempt(w http.ResponseWriter, r *http.Request) {
	ticket, refused, err := h.grading.StartAttempt(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if refused != nil {
		writeJSON(w, http.StatusForbidden, refused)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// POST /quizzes/{id}/submit {"attempt": 2, "answers": {"fib_0": "...", "tf_0": "true"}}
// Form posts carry the same data as attempt=2&fib_0=...&tf_0=true.
func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Attempt int                     `json:"attempt"`
		Answers domain.SubmittedAnswers `json:"answers"`
	}
	if isForm(r) {
		attempt, answers, err := decodeSubmissionForm(r)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "bad form")
			return
		}
		req.Attempt, req.Answers = attempt, answers
	} else if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	out, err := h.grading.Submit(r.Context(), currentUser(r), app.SubmitRequest{
		QuizID:         chi.URLParam(r, "id"),
		Answers:        req.Answers,
		ClaimedAttempt: req.Attempt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	switch out.Status {
	case app.StatusRecorded:
		writeJSON(w, http.StatusCreated, out)
	case app.StatusExhausted:
		writeJSON(w, http.StatusForbidden, out)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) result(w http.ResponseWriter, r *http.Request) {
	view, err := h.grading.Result(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) listQuizzes(w http.ResponseWriter, r *http.Request) {
	out, err := h.admin.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// uploadQuiz accepts the quiz document either as the request body or as a
// multipart "file" field.
func (h *handlers) uploadQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "no file selected")
			return
		}
		defer file.Close()
		src = file
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		writeMessage(w, http.StatusRequestEntityTooLarge, "quiz file too large")
		return
	}

	res, err := h.admin.UploadQuiz(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) previewQuiz(w http.ResponseWriter, r *http.Request) {
	def, err := h.admin.PreviewQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *handlers) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteQuiz(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteAllQuizzes(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteAllQuizzes(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteAllResults(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteAllResults(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listStudents(w http.ResponseWriter, r *http.Request) {
	out, err := h.admin.ListStudents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createStudent(w http.ResponseWriter, r *http.Request) {
	var in app.StudentInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	u, err := h.admin.CreateStudent(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handlers) updateStudent(w http.ResponseWriter, r *http.Request) {
	var in app.StudentInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	u, err := h.admin.UpdateStudent(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) deleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) scores(w http.ResponseWriter, r *http.Request) {
	out, err := h.admin.Scores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) submission(w http.ResponseWriter, r *http.Request) {
	view, err := h.admin.Submission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Settings())
}

type settingsResponse struct {
	app.Settings
	Warning string `json:"warning,omitempty"`
}

// PUT /admin/settings {"maxAttempts": 5, "mailEnabled": true}
func (h *handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaxAttempts int  `json:"maxAttempts"`
		MailEnabled bool `json:"mailEnabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	next, warning, err := h.admin.UpdateSettings(req.MaxAttempts, req.MailEnabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: next, Warning: warning})
}
