package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-grading-service/internal/domain"
)

// ErrMalformedQuiz is returned when an upload is not valid JSON.
var ErrMalformedQuiz = errors.New("invalid JSON file")

// StudentInput is the admin form for creating or editing a student.
type StudentInput struct {
	StudentID string `json:"studentId" validate:"required,max=64"`
	Password  string `json:"password" validate:"required_without=ID,omitempty,min=4"`
	Email     string `json:"email" validate:"omitempty,email"`
	ID        string `json:"-"`
}

// UploadResult reports an accepted quiz and how many students were told.
type UploadResult struct {
	Quiz     domain.Quiz `json:"quiz"`
	Notified int         `json:"notified"`
}

// StudentScores groups one student's numbered attempts by quiz.
type StudentScores struct {
	Student domain.User    `json:"student"`
	Quizzes []QuizAttempts `json:"quizzes"`
}

type QuizAttempts struct {
	QuizID   string                 `json:"quizId"`
	Title    string                 `json:"title"`
	Attempts []domain.AttemptRecord `json:"attempts"`
}

// AdminService contains the administrator use cases.
type AdminService struct {
	catalog  QuizCatalog
	quizzes  QuizRepository
	results  ResultRepository
	users    UserRepository
	settings *SettingsStore
	boards   BoardRepository
	notifier Notifier
	observer Observer
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	baseURL  string
}

// AdminDeps wires an AdminService.
type AdminDeps struct {
	Catalog  QuizCatalog
	Quizzes  QuizRepository
	Results  ResultRepository
	Users    UserRepository
	Settings *SettingsStore
	Boards   BoardRepository
	Notifier Notifier
	Observer Observer
	Logger   *zap.Logger
	Clock    func() time.Time
	BaseURL  string
}

func NewAdminService(d AdminDeps) *AdminService {
	s := &AdminService{
		catalog:  d.Catalog,
		quizzes:  d.Quizzes,
		results:  d.Results,
		users:    d.Users,
		settings: d.Settings,
		boards:   d.Boards,
		notifier: d.Notifier,
		observer: d.Observer,
		logger:   d.Logger,
		validate: validator.New(),
		now:      d.Clock,
		baseURL:  d.BaseURL,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ParseQuiz decodes and validates an uploaded quiz document.
func ParseQuiz(raw []byte) (domain.QuizDefinition, error) {
	var def domain.QuizDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("%w: %v", ErrMalformedQuiz, err)
	}
	def.ID = ""
	if err := domain.ValidateQuiz(def); err != nil {
		return domain.QuizDefinition{}, err
	}
	return def, nil
}

// UploadQuiz validates and stores a quiz, then announces it to students.
func (s *AdminService) UploadQuiz(ctx context.Context, raw []byte) (UploadResult, error) {
	def, err := ParseQuiz(raw)
	if err != nil {
		return UploadResult{}, err
	}
	def.ID = uuid.NewString()
	quiz := domain.Quiz{
		ID:         def.ID,
		Title:      def.Title,
		CreatedAt:  s.now().UTC(),
		Definition: def,
	}
	if err := s.catalog.SaveQuiz(ctx, quiz); err != nil {
		return UploadResult{}, fmt.Errorf("save quiz: %w", err)
	}
	s.logger.Info("quiz uploaded", zap.String("quiz_id", quiz.ID), zap.String("title", quiz.Title),
		zap.Int("questions", def.QuestionCount()))

	res := UploadResult{Quiz: quiz}
	settings := s.settings.Get()
	if !settings.MailEnabled {
		return res, nil
	}
	students, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Warn("list students for announcement", zap.Error(err))
		return res, nil
	}
	var to []string
	for _, u := range students {
		if strings.TrimSpace(u.Email) != "" {
			to = append(to, u.Email)
		}
	}
	if len(to) == 0 {
		return res, nil
	}
	sent, err := s.notifier.AnnounceQuiz(ctx, to, QuizAnnouncement{
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		MaxAttempts: settings.MaxAttempts,
		QuizURL:     s.baseURL + "/quizzes/" + quiz.ID,
	})
	s.observer.ObserveNotification("announcement", err == nil)
	if err != nil {
		s.logger.Warn("quiz announcement failed", zap.String("quiz_id", quiz.ID), zap.Error(err))
	}
	res.Notified = sent
	return res, nil
}

// ListQuizzes returns every quiz, newest first.
func (s *AdminService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	return sortQuizzesNewestFirst(quizzes), nil
}

// PreviewQuiz returns the full definition, answers included.
func (s *AdminService) PreviewQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// DeleteQuiz removes a quiz together with its results.
func (s *AdminService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.catalog.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	if err := s.results.DeleteByQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	s.forget(ctx, quizID)
	s.logger.Info("quiz deleted", zap.String("quiz_id", quizID))
	return nil
}

// DeleteAllQuizzes removes every quiz and every result.
func (s *AdminService) DeleteAllQuizzes(ctx context.Context) error {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteAllQuizzes(ctx); err != nil {
		return err
	}
	if err := s.results.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	for _, q := range quizzes {
		s.forget(ctx, q.ID)
	}
	return nil
}

// DeleteAllResults removes every recorded attempt.
func (s *AdminService) DeleteAllResults(ctx context.Context) error {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return err
	}
	if err := s.results.DeleteAll(ctx); err != nil {
		return err
	}
	if s.boards != nil {
		for _, q := range quizzes {
			if board, ok := s.boards.Get(q.ID); ok {
				board.Close()
				s.boards.Delete(q.ID)
			}
		}
	}
	return nil
}

func (s *AdminService) forget(ctx context.Context, quizID string) {
	s.quizzes.Invalidate(ctx, quizID)
	if s.boards == nil {
		return
	}
	if board, ok := s.boards.Get(quizID); ok {
		board.Close()
		s.boards.Delete(quizID)
	}
}

// CreateStudent adds a student account.
func (s *AdminService) CreateStudent(ctx context.Context, in StudentInput) (domain.User, error) {
	in.ID = ""
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, err
	}
	if _, err := s.users.GetByStudentID(ctx, in.StudentID); err == nil {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserExists, in.StudentID)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:           uuid.NewString(),
		StudentID:    in.StudentID,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("student created", zap.String("student_id", u.StudentID))
	return u, nil
}

// UpdateStudent edits a student. An empty password keeps the current one.
func (s *AdminService) UpdateStudent(ctx context.Context, id string, in StudentInput) (domain.User, error) {
	in.ID = id
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return domain.User{}, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if in.StudentID != u.StudentID {
		if other, err := s.users.GetByStudentID(ctx, in.StudentID); err == nil && other.ID != id {
			return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserExists, in.StudentID)
		}
	}
	u.StudentID = in.StudentID
	u.Email = in.Email
	if in.Password != "" {
		if u.PasswordHash, err = HashPassword(in.Password); err != nil {
			return domain.User{}, err
		}
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// DeleteStudent removes a student and their results.
func (s *AdminService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	return s.results.DeleteByUser(ctx, id)
}

// ListStudents returns every student account.
func (s *AdminService) ListStudents(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

// Scores groups every student's numbered attempts by quiz.
func (s *AdminService) Scores(ctx context.Context) ([]StudentScores, error) {
	students, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(quizzes))
	for _, q := range quizzes {
		titles[q.ID] = q.Title
	}

	out := make([]StudentScores, 0, len(students))
	for _, u := range students {
		records, err := s.results.ListByUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		order, groups := groupByQuiz(records)
		entry := StudentScores{Student: u, Quizzes: make([]QuizAttempts, 0, len(order))}
		for _, quizID := range order {
			entry.Quizzes = append(entry.Quizzes, QuizAttempts{
				QuizID:   quizID,
				Title:    titles[quizID],
				Attempts: numbered(groups[quizID]),
			})
		}
		out = append(out, entry)
	}
	return out, nil
}

// Submission returns any student's stored attempt.
func (s *AdminService) Submission(ctx context.Context, resultID string) (ResultView, error) {
	rec, err := s.results.Get(ctx, resultID)
	if err != nil {
		return ResultView{}, err
	}
	return resultView(ctx, s.quizzes, s.results, rec, s.settings.Get().Policy())
}

// Settings returns the current settings.
func (s *AdminService) Settings() Settings {
	return s.settings.Get()
}

// UpdateSettings changes max attempts and the mail switch.
func (s *AdminService) UpdateSettings(maxAttempts int, mailEnabled bool) (Settings, string, error) {
	next, warning, err := s.settings.Update(maxAttempts, mailEnabled)
	if err != nil {
		return Settings{}, "", err
	}
	s.logger.Info("settings updated", zap.Int("max_attempts", next.MaxAttempts), zap.Bool("mail_enabled", next.MailEnabled))
	return next, warning, nil
}
