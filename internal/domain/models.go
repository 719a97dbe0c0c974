package domain

import (
	"encoding/json"
	"time"
)

// Question kinds, also used as the prefix of submitted answer keys.
const (
	KindFillInTheBlank = "fib"
	KindTrueFalse      = "tf"
	KindMultipleChoice = "mcq"
)

// FillInTheBlank is a free-text question graded with fuzzy matching.
// Pointer fields distinguish a missing key from an empty value.
type FillInTheBlank struct {
	Question *string `json:"question" validate:"required"`
	Answer   *string `json:"answer" validate:"required"`
}

// TrueFalse is a boolean question.
type TrueFalse struct {
	Question *string `json:"question" validate:"required"`
	Answer   *bool   `json:"answer" validate:"required"`
}

// MultipleChoice is a question with an ordered option list and one expected option.
type MultipleChoice struct {
	Question *string  `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"required"`
	Answer   *string  `json:"answer" validate:"required"`
}

// QuizDefinition is the uploaded question set. It is never mutated once stored.
type QuizDefinition struct {
	ID              string           `json:"id,omitempty"`
	Title           string           `json:"title"`
	FillInTheBlanks []FillInTheBlank `json:"fill_in_the_blanks,omitempty"`
	TrueFalse       []TrueFalse      `json:"true_false,omitempty"`
	MCQs            []MultipleChoice `json:"mcqs,omitempty"`
}

// QuestionCount is the total number of questions across all kinds.
func (q QuizDefinition) QuestionCount() int {
	return len(q.FillInTheBlanks) + len(q.TrueFalse) + len(q.MCQs)
}

// Quiz is the catalog entry for an uploaded definition.
type Quiz struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	CreatedAt  time.Time      `json:"createdAt"`
	Definition QuizDefinition `json:"-"`
}

// SubmittedAnswers maps positional keys ("fib_0", "tf_1", "mcq_2") to raw values.
type SubmittedAnswers map[string]string

// QuestionResult is the verdict for one question.
type QuestionResult struct {
	Question      string   `json:"question"`
	UserAnswer    string   `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Answered      bool     `json:"answered"`
	Options       []string `json:"options,omitempty"`
}

// ScoreReport is the outcome of scoring one submission.
type ScoreReport struct {
	Percentage      float64          `json:"percentage"`
	Correct         int              `json:"correct"`
	Total           int              `json:"total"`
	FillInTheBlanks []QuestionResult `json:"fill_in_the_blanks"`
	TrueFalse       []QuestionResult `json:"true_false"`
	MCQs            []QuestionResult `json:"mcqs"`
}

// Passed reports whether the percentage reaches passMark.
func (r ScoreReport) Passed(passMark float64) bool {
	return r.Percentage >= passMark
}

// SectionSummary counts correct answers for one question kind.
type SectionSummary struct {
	Kind    string `json:"kind"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

// Sections summarizes the report per question kind, in definition order.
func (r ScoreReport) Sections() []SectionSummary {
	count := func(kind string, results []QuestionResult) SectionSummary {
		s := SectionSummary{Kind: kind, Total: len(results)}
		for _, res := range results {
			if res.IsCorrect {
				s.Correct++
			}
		}
		return s
	}
	return []SectionSummary{
		count(KindFillInTheBlank, r.FillInTheBlanks),
		count(KindTrueFalse, r.TrueFalse),
		count(KindMultipleChoice, r.MCQs),
	}
}

// AttemptRecord is one persisted, scored submission.
type AttemptRecord struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	QuizID        string          `json:"quizId"`
	AttemptNumber int             `json:"attemptNumber"`
	Score         float64         `json:"score"`
	SubmittedAt   time.Time       `json:"submittedAt"`
	Report        json.RawMessage `json:"report"`
	Notified      bool            `json:"notified"`
}

// DecodeReport unmarshals the serialized report.
func (r AttemptRecord) DecodeReport() (ScoreReport, error) {
	var report ScoreReport
	err := json.Unmarshal(r.Report, &report)
	return report, err
}

// AttemptPolicy bounds how often a quiz may be attempted.
type AttemptPolicy struct {
	MaxAttempts     int
	DuplicateWindow time.Duration
}

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// User is a student account. Admin credentials live in configuration.
type User struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthenticatedUser is the identity attached to an authorized request.
type AuthenticatedUser struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`
}

// IsAdmin reports whether the user has the admin role.
func (u AuthenticatedUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ScoreboardEntry is one student's best score for a quiz.
type ScoreboardEntry struct {
	UserID    string  `json:"userId"`
	Name      string  `json:"name"`
	BestScore float64 `json:"bestScore"`
	Attempts  int     `json:"attempts"`
}

// Scoreboard captures the ordered best scores for a quiz.
type Scoreboard struct {
	QuizID    string            `json:"quizId"`
	Entries   []ScoreboardEntry `json:"entries"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
