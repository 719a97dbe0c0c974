package app

import (
	"context"

	"quiz-grading-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	Invalidate(ctx context.Context, quizID string)
}

// QuizCatalog stores uploaded quizzes.
type QuizCatalog interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	DeleteAllQuizzes(ctx context.Context) error
}

// ResultRepository persists attempt records. History and the List methods
// return records oldest first. Append must reject a second record with the
// same (user, quiz, attempt number) with domain.ErrAttemptConflict.
type ResultRepository interface {
	History(ctx context.Context, userID, quizID string) ([]domain.AttemptRecord, error)
	Append(ctx context.Context, rec domain.AttemptRecord) error
	Get(ctx context.Context, id string) (domain.AttemptRecord, error)
	MarkNotified(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.AttemptRecord, error)
	DeleteByQuiz(ctx context.Context, quizID string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteAll(ctx context.Context) error
}

// UserRepository stores student accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) error
	UpdateUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetByStudentID(ctx context.Context, studentID string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PairLocker serializes attempt creation for one (user, quiz) pair.
// The returned unlock func must always be called.
type PairLocker interface {
	Lock(ctx context.Context, userID, quizID string) (unlock func(), err error)
}

// BoardRepository abstracts where live scoreboards are kept and how recorded
// attempts reach them. Publish must deliver to every live board for the quiz,
// including boards held by other instances.
type BoardRepository interface {
	GetOrCreate(quizID string) (board *Board, created bool)
	Get(quizID string) (*Board, bool)
	Delete(quizID string)
	Publish(ctx context.Context, u BoardUpdate) error
}

// Observer receives service-level measurements.
type Observer interface {
	ObserveSubmission(outcome string, score float64, recorded bool)
	ObserveNotification(kind string, ok bool)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(string, float64, bool) {}
func (nopObserver) ObserveNotification(string, bool)        {}
