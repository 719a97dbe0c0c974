package scoring

import (
	"math"
	"strconv"
	"strings"

	"quiz-grading-service/internal/domain"
)

// Option tweaks a Scorer.
type Option func(*Scorer)

// WithThreshold sets the fuzzy-match threshold for fill-in-the-blank answers.
func WithThreshold(t float64) Option { return func(s *Scorer) { s.threshold = t } }

// Scorer grades submissions against quiz definitions.
type Scorer struct {
	threshold float64
}

// NewScorer returns a Scorer using DefaultThreshold unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{threshold: DefaultThreshold}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score is a convenience wrapper using the default threshold.
func Score(def domain.QuizDefinition, answers domain.SubmittedAnswers) (domain.ScoreReport, error) {
	return NewScorer().Score(def, answers)
}

// Score grades answers against def. A definition with a question missing a
// required field is rejected with a *domain.ValidationError; nothing is skipped.
// The percentage is rounded to two decimals.
func (s *Scorer) Score(def domain.QuizDefinition, answers domain.SubmittedAnswers) (domain.ScoreReport, error) {
	if err := domain.ValidateQuestions(def); err != nil {
		return domain.ScoreReport{}, err
	}

	report := domain.ScoreReport{
		FillInTheBlanks: make([]domain.QuestionResult, 0, len(def.FillInTheBlanks)),
		TrueFalse:       make([]domain.QuestionResult, 0, len(def.TrueFalse)),
		MCQs:            make([]domain.QuestionResult, 0, len(def.MCQs)),
	}

	for i, q := range def.FillInTheBlanks {
		user := strings.TrimSpace(answers[answerKey(domain.KindFillInTheBlank, i)])
		expected := strings.TrimSpace(*q.Answer)
		res := domain.QuestionResult{
			Question:      *q.Question,
			UserAnswer:    user,
			CorrectAnswer: expected,
			IsCorrect:     IsFuzzyCorrect(user, expected, s.threshold),
			Answered:      user != "",
		}
		report.FillInTheBlanks = append(report.FillInTheBlanks, res)
		tally(&report, res)
	}

	for i, q := range def.TrueFalse {
		raw, answered := answers[answerKey(domain.KindTrueFalse, i)]
		// Anything but "true" reads as false. An absent answer is never correct,
		// even when false is expected; Answered tells the two cases apart.
		given := strings.EqualFold(raw, "true")
		res := domain.QuestionResult{
			Question:      *q.Question,
			UserAnswer:    raw,
			CorrectAnswer: strconv.FormatBool(*q.Answer),
			IsCorrect:     answered && given == *q.Answer,
			Answered:      answered,
		}
		report.TrueFalse = append(report.TrueFalse, res)
		tally(&report, res)
	}

	for i, q := range def.MCQs {
		user := answers[answerKey(domain.KindMultipleChoice, i)]
		res := domain.QuestionResult{
			Question:      *q.Question,
			UserAnswer:    user,
			CorrectAnswer: *q.Answer,
			IsCorrect:     user == *q.Answer,
			Answered:      user != "",
			Options:       append([]string(nil), q.Options...),
		}
		report.MCQs = append(report.MCQs, res)
		tally(&report, res)
	}

	report.Percentage = Percentage(report.Correct, report.Total)
	return report, nil
}

// Percentage is correct/total*100 rounded to two decimals, or 0 for an empty quiz.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}

func tally(r *domain.ScoreReport, res domain.QuestionResult) {
	r.Total++
	if res.IsCorrect {
		r.Correct++
	}
}

func answerKey(kind string, index int) string {
	return kind + "_" + strconv.Itoa(index)
}
