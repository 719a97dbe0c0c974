package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
)

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalid   *domain.ValidationError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &fieldErrs),
		errors.Is(err, app.ErrMalformedQuiz), errors.Is(err, domain.ErrInvalidSettings):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrLockNotAcquired),
		errors.Is(err, domain.ErrAttemptConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

var answerKeyPrefixes = []string{"fib_", "tf_", "mcq_"}

func isForm(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

// decodeSubmissionForm reads the attempt token and answer fields of a form
// post. Unrelated fields are ignored.
func decodeSubmissionForm(r *http.Request) (int, domain.SubmittedAnswers, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return 0, nil, err
	}
	attempt := 0
	if raw := strings.TrimSpace(r.PostForm.Get("attempt")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, nil, fmt.Errorf("attempt %q: %w", raw, err)
		}
		attempt = n
	}
	answers := make(domain.SubmittedAnswers)
	for key, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		for _, prefix := range answerKeyPrefixes {
			if strings.HasPrefix(key, prefix) {
				answers[key] = values[0]
				break
			}
		}
	}
	return attempt, answers, nil
}

