package app

import (
	"context"
	"fmt"
	"sort"

	"quiz-grading-service/internal/attempt"
	"quiz-grading-service/internal/domain"
)

// numbered returns records (oldest first) with attempt numbers taken from
// their position: the Nth earliest record is attempt N.
func numbered(records []domain.AttemptRecord) []domain.AttemptRecord {
	out := make([]domain.AttemptRecord, len(records))
	for i, rec := range records {
		rec.AttemptNumber = i + 1
		out[i] = rec
	}
	return out
}

func sortQuizzesNewestFirst(quizzes []domain.Quiz) []domain.Quiz {
	out := append([]domain.Quiz(nil), quizzes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// groupByQuiz splits a user's records (ordered by submission time) per quiz,
// keeping the order in which quizzes first appear.
func groupByQuiz(records []domain.AttemptRecord) ([]string, map[string][]domain.AttemptRecord) {
	var order []string
	groups := make(map[string][]domain.AttemptRecord)
	for _, rec := range records {
		if _, ok := groups[rec.QuizID]; !ok {
			order = append(order, rec.QuizID)
		}
		groups[rec.QuizID] = append(groups[rec.QuizID], rec)
	}
	return order, groups
}

// resultView decodes rec and places it in its owner's history. A deleted
// quiz falls back to a generic title.
func resultView(ctx context.Context, quizzes QuizRepository, results ResultRepository, rec domain.AttemptRecord, policy domain.AttemptPolicy) (ResultView, error) {
	history, err := results.History(ctx, rec.UserID, rec.QuizID)
	if err != nil {
		return ResultView{}, fmt.Errorf("load history: %w", err)
	}
	report, err := rec.DecodeReport()
	if err != nil {
		return ResultView{}, fmt.Errorf("decode report: %w", err)
	}
	number, _ := attempt.NumberOf(history, rec.ID)

	title := "Exam"
	if def, err := quizzes.GetQuiz(ctx, rec.QuizID); err == nil {
		title = def.Title
	}
	return ResultView{
		Record:        rec,
		Report:        report,
		QuizTitle:     title,
		AttemptNumber: number,
		CanRetake:     attempt.CanAttempt(history, policy),
	}, nil
}
