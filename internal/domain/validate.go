package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func questionValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report JSON field names so errors match the uploaded document.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateQuestions checks that every question carries its required fields.
// The first offending question is reported as a *ValidationError.
func ValidateQuestions(q QuizDefinition) error {
	for i, item := range q.FillInTheBlanks {
		if err := validateQuestion(KindFillInTheBlank, i, item); err != nil {
			return err
		}
	}
	for i, item := range q.TrueFalse {
		if err := validateQuestion(KindTrueFalse, i, item); err != nil {
			return err
		}
	}
	for i, item := range q.MCQs {
		if err := validateQuestion(KindMultipleChoice, i, item); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuiz checks an uploaded definition: a title plus well-formed questions.
func ValidateQuiz(q QuizDefinition) error {
	if strings.TrimSpace(q.Title) == "" {
		return &ValidationError{Kind: "quiz", Index: -1, Field: "title"}
	}
	return ValidateQuestions(q)
}

func validateQuestion(kind string, index int, question any) error {
	err := questionValidator().Struct(question)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Kind: kind, Index: index, Field: fieldErrs[0].Field()}
	}
	return err
}
