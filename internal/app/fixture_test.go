package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/infra/memory"
)

const quizJSON = `{
	"title": "Capitals",
	"fill_in_the_blanks": [{"question": "The capital of France is ___", "answer": "Paris"}],
	"true_false": [{"question": "Berlin is in Germany", "answer": true}],
	"mcqs": [{"question": "Capital of Italy?", "options": ["Milan", "Rome"], "answer": "Rome"}]
}`

type fixture struct {
	catalog  *memory.Catalog
	results  *memory.ResultStore
	users    *memory.UserStore
	boards   *memory.BoardStore
	settings *app.SettingsStore
	notifier *fakeNotifier
	grading  *app.GradingService
	admin    *app.AdminService
	auth     *app.AuthService

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T, settings app.Settings) *fixture {
	t.Helper()
	f := &fixture{
		catalog:  memory.NewCatalog(),
		results:  memory.NewResultStore(),
		users:    memory.NewUserStore(),
		boards:   memory.NewBoardStore(),
		settings: app.NewSettingsStore(settings),
		notifier: &fakeNotifier{},
		now:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	quizzes := memory.NewQuizRepository(f.catalog, time.Minute)
	f.grading = app.NewGradingService(quizzes, f.catalog, f.results, f.users, memory.NewPairLocker(), f.settings,
		app.WithNotifier(f.notifier),
		app.WithBoards(f.boards),
		app.WithClock(f.clock),
		app.WithAdminEmail("admin@example.com"),
		app.WithBaseURL("http://quiz.test"),
	)
	f.admin = app.NewAdminService(app.AdminDeps{
		Catalog:  f.catalog,
		Quizzes:  quizzes,
		Results:  f.results,
		Users:    f.users,
		Settings: f.settings,
		Boards:   f.boards,
		Notifier: f.notifier,
		Clock:    f.clock,
		BaseURL:  "http://quiz.test",
	})
	f.auth = app.NewAuthService(f.users, app.AdminAccount{Username: "admin", Password: "secret"}, "test-secret", time.Hour)
	return f
}

func defaultSettings() app.Settings {
	return app.Settings{MaxAttempts: 3, DuplicateWindow: 5 * time.Second, PassMark: 70}
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fixture) upload(t *testing.T) domain.Quiz {
	t.Helper()
	res, err := f.admin.UploadQuiz(context.Background(), []byte(quizJSON))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return res.Quiz
}

func (f *fixture) student(t *testing.T, studentID, email string) domain.AuthenticatedUser {
	t.Helper()
	u, err := f.admin.CreateStudent(context.Background(), app.StudentInput{StudentID: studentID, Password: "pass1234", Email: email})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	return domain.AuthenticatedUser{ID: u.ID, Role: domain.RoleStudent, Name: u.StudentID}
}

// answers for quizJSON: all three correct when right is true, one correct otherwise.
func answers(right bool) domain.SubmittedAnswers {
	if right {
		return domain.SubmittedAnswers{"fib_0": "paris", "tf_0": "True", "mcq_0": "Rome"}
	}
	return domain.SubmittedAnswers{"fib_0": "Lyon", "tf_0": "false", "mcq_0": "Rome"}
}

type fakeNotifier struct {
	mu          sync.Mutex
	submissions []app.SubmissionNotice
	announced   []string
	fail        bool
}

func (n *fakeNotifier) NotifySubmission(_ context.Context, _ string, notice app.SubmissionNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return context.DeadlineExceeded
	}
	n.submissions = append(n.submissions, notice)
	return nil
}

func (n *fakeNotifier) AnnounceQuiz(_ context.Context, to []string, _ app.QuizAnnouncement) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announced = append(n.announced, to...)
	return len(to), nil
}
