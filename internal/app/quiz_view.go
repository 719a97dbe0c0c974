package app

import (
	"strconv"

	"quiz-grading-service/internal/domain"
)

// QuizView is a quiz as shown to a student: prompts and options, no answers.
// Key is the form field the answer must be submitted under.
type QuizView struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	FillInTheBlanks []PromptView `json:"fill_in_the_blanks"`
	TrueFalse       []PromptView `json:"true_false"`
	MCQs            []ChoiceView `json:"mcqs"`
}

type PromptView struct {
	Key      string `json:"key"`
	Question string `json:"question"`
}

type ChoiceView struct {
	Key      string   `json:"key"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// NewQuizView strips answers from def. def must have passed validation.
func NewQuizView(quizID string, def domain.QuizDefinition) QuizView {
	v := QuizView{
		ID:              quizID,
		Title:           def.Title,
		FillInTheBlanks: make([]PromptView, 0, len(def.FillInTheBlanks)),
		TrueFalse:       make([]PromptView, 0, len(def.TrueFalse)),
		MCQs:            make([]ChoiceView, 0, len(def.MCQs)),
	}
	for i, q := range def.FillInTheBlanks {
		v.FillInTheBlanks = append(v.FillInTheBlanks, PromptView{Key: key(domain.KindFillInTheBlank, i), Question: *q.Question})
	}
	for i, q := range def.TrueFalse {
		v.TrueFalse = append(v.TrueFalse, PromptView{Key: key(domain.KindTrueFalse, i), Question: *q.Question})
	}
	for i, q := range def.MCQs {
		v.MCQs = append(v.MCQs, ChoiceView{Key: key(domain.KindMultipleChoice, i), Question: *q.Question, Options: q.Options})
	}
	return v
}

func key(kind string, i int) string {
	return kind + "_" + strconv.Itoa(i)
}
