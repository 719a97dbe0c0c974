package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-grading-service/internal/attempt"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/scoring"
)

// Status is the outcome of a submission.
type Status string

const (
	StatusRecorded  Status = "recorded"
	StatusDuplicate Status = "duplicate"
	StatusStale     Status = "stale"
	StatusExhausted Status = "exhausted"
)

// Outcome is what a submission or an attempt start resolved to. For anything
// but StatusRecorded, Record is the student's most recent prior attempt.
type Outcome struct {
	Status        Status               `json:"status"`
	Record        domain.AttemptRecord `json:"record"`
	AttemptNumber int                  `json:"attemptNumber"`
	CanRetake     bool                 `json:"canRetake"`
	Message       string               `json:"message,omitempty"`
}

// AttemptTicket is handed out when a student opens a quiz. AttemptNumber
// doubles as the token the submission must echo back.
type AttemptTicket struct {
	Quiz          QuizView      `json:"quiz"`
	AttemptNumber int           `json:"attemptNumber"`
	MaxAttempts   int           `json:"maxAttempts"`
	State         attempt.State `json:"state"`
}

// SubmitRequest carries a student's answers. ClaimedAttempt is the attempt
// token from the ticket; zero means the client sent none.
type SubmitRequest struct {
	QuizID         string
	Answers        domain.SubmittedAnswers
	ClaimedAttempt int
}

// ResultView is a stored attempt as shown back to its owner or an admin.
type ResultView struct {
	Record        domain.AttemptRecord `json:"record"`
	Report        domain.ScoreReport   `json:"report"`
	QuizTitle     string               `json:"quizTitle"`
	AttemptNumber int                  `json:"attemptNumber"`
	CanRetake     bool                 `json:"canRetake"`
}

// QuizHistory lists a student's numbered attempts for one quiz.
type QuizHistory struct {
	QuizID      string                 `json:"quizId"`
	Title       string                 `json:"title"`
	CreatedAt   time.Time              `json:"createdAt"`
	Attempts    []domain.AttemptRecord `json:"attempts"`
	CanAttempt  bool                   `json:"canAttempt"`
	MaxAttempts int                    `json:"maxAttempts"`
	State       attempt.State          `json:"state"`
}

// GradingOption configures a GradingService.
type GradingOption func(*GradingService)

func WithScorer(s *scoring.Scorer) GradingOption { return func(g *GradingService) { g.scorer = s } }
func WithNotifier(n Notifier) GradingOption { return func(g *GradingService) { g.notifier = n } }
func WithObserver(o Observer) GradingOption { return func(g *GradingService) { g.observer = o } }
func WithLogger(l *zap.Logger) GradingOption { return func(g *GradingService) { g.logger = l } }
func WithBoards(b BoardRepository) GradingOption { return func(g *GradingService) { g.boards = b } }
func WithClock(now func() time.Time) GradingOption { return func(g *GradingService) { g.now = now } }
func WithAdminEmail(addr string) GradingOption { return func(g *GradingService) { g.adminEmail = addr } }
func WithBaseURL(url string) GradingOption { return func(g *GradingService) { g.baseURL = url } }

// GradingService contains the student-facing quiz use cases.
type GradingService struct {
	quizzes    QuizRepository
	catalog    QuizCatalog
	results    ResultRepository
	users      UserRepository
	locks      PairLocker
	settings   *SettingsStore
	scorer     *scoring.Scorer
	notifier   Notifier
	observer   Observer
	boards     BoardRepository
	logger     *zap.Logger
	now        func() time.Time
	adminEmail string
	baseURL    string
}

func NewGradingService(
	quizzes QuizRepository,
	catalog QuizCatalog,
	results ResultRepository,
	users UserRepository,
	locks PairLocker,
	settings *SettingsStore,
	opts ...GradingOption,
) *GradingService {
	g := &GradingService{
		quizzes:  quizzes,
		catalog:  catalog,
		results:  results,
		users:    users,
		locks:    locks,
		settings: settings,
		scorer:   scoring.NewScorer(),
		notifier: nopNotifier{},
		observer: nopObserver{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// StartAttempt opens a quiz for a student. When no attempts are left the
// outcome points at the latest result instead.
func (s *GradingService) StartAttempt(ctx context.Context, user domain.AuthenticatedUser, quizID string) (AttemptTicket, *Outcome, error) {
	history, err := s.results.History(ctx, user.ID, quizID)
	if err != nil {
		return AttemptTicket{}, nil, fmt.Errorf("load history: %w", err)
	}
	policy := s.settings.Get().Policy()
	if !attempt.CanAttempt(history, policy) {
		out := s.refusal(StatusExhausted, history, policy)
		return AttemptTicket{}, &out, nil
	}

	def, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptTicket{}, nil, err
	}
	if err := domain.ValidateQuestions(def); err != nil {
		return AttemptTicket{}, nil, err
	}
	return AttemptTicket{
		Quiz:          NewQuizView(quizID, def),
		AttemptNumber: attempt.NextNumber(history),
		MaxAttempts:   policy.MaxAttempts,
		State:         attempt.StateOf(history, policy, true),
	}, nil, nil
}

// Submit scores a submission and records it, unless it is a duplicate, a
// stale resubmission, or over the attempt limit.
func (s *GradingService) Submit(ctx context.Context, user domain.AuthenticatedUser, req SubmitRequest) (Outcome, error) {
	unlock, err := s.locks.Lock(ctx, user.ID, req.QuizID)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	history, err := s.results.History(ctx, user.ID, req.QuizID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load history: %w", err)
	}
	settings := s.settings.Get()
	policy := settings.Policy()
	now := s.now()

	if attempt.IsDuplicateSubmission(history, now, policy) {
		s.logger.Info("duplicate submission suppressed",
			zap.String("user_id", user.ID), zap.String("quiz_id", req.QuizID))
		return s.refuse(StatusDuplicate, history, policy), nil
	}
	if req.ClaimedAttempt > 0 && attempt.IsStaleToken(req.ClaimedAttempt, history) {
		s.logger.Info("stale submission suppressed",
			zap.String("user_id", user.ID), zap.String("quiz_id", req.QuizID),
			zap.Int("claimed", req.ClaimedAttempt), zap.Int("recorded", attempt.Count(history)))
		return s.refuse(StatusStale, history, policy), nil
	}
	if !attempt.CanAttempt(history, policy) {
		return s.refuse(StatusExhausted, history, policy), nil
	}

	def, err := s.quizzes.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return Outcome{}, err
	}
	report, err := s.scorer.Score(def, req.Answers)
	if err != nil {
		s.logger.Error("quiz definition rejected by scorer",
			zap.String("quiz_id", req.QuizID), zap.Error(err))
		return Outcome{}, err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal report: %w", err)
	}

	rec := domain.AttemptRecord{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		QuizID:        req.QuizID,
		AttemptNumber: attempt.NextNumber(history),
		Score:         report.Percentage,
		SubmittedAt:   now,
		Report:        raw,
	}
	if err := s.results.Append(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrAttemptConflict) {
			// Another instance recorded this attempt number first.
			history, herr := s.results.History(ctx, user.ID, req.QuizID)
			if herr != nil {
				return Outcome{}, fmt.Errorf("load history: %w", herr)
			}
			return s.refuse(StatusStale, history, policy), nil
		}
		return Outcome{}, fmt.Errorf("append attempt: %w", err)
	}
	history = append(history, rec)
	s.observer.ObserveSubmission(string(StatusRecorded), rec.Score, true)
	s.logger.Info("attempt recorded",
		zap.String("user_id", user.ID), zap.String("quiz_id", req.QuizID),
		zap.Int("attempt", rec.AttemptNumber), zap.Float64("score", rec.Score))

	s.publish(ctx, req.QuizID, user.Name, rec)

	if settings.MailEnabled && s.adminEmail != "" {
		if s.notifySubmission(ctx, user, def, rec, report, settings.PassMark) {
			rec.Notified = true
		}
	}

	return Outcome{
		Status:        StatusRecorded,
		Record:        rec,
		AttemptNumber: rec.AttemptNumber,
		CanRetake:     attempt.CanAttempt(history, policy),
	}, nil
}

// Result returns one stored attempt. Students only see their own.
func (s *GradingService) Result(ctx context.Context, user domain.AuthenticatedUser, resultID string) (ResultView, error) {
	rec, err := s.results.Get(ctx, resultID)
	if err != nil {
		return ResultView{}, err
	}
	if !user.IsAdmin() && rec.UserID != user.ID {
		return ResultView{}, domain.ErrResultNotFound
	}
	return resultView(ctx, s.quizzes, s.results, rec, s.settings.Get().Policy())
}

// History lists every quiz, newest first, with the student's attempts on it.
func (s *GradingService) History(ctx context.Context, user domain.AuthenticatedUser) ([]QuizHistory, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	records, err := s.results.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	byQuiz := make(map[string][]domain.AttemptRecord)
	for _, rec := range records {
		byQuiz[rec.QuizID] = append(byQuiz[rec.QuizID], rec)
	}

	policy := s.settings.Get().Policy()
	out := make([]QuizHistory, 0, len(quizzes))
	for _, q := range sortQuizzesNewestFirst(quizzes) {
		attempts := numbered(byQuiz[q.ID])
		out = append(out, QuizHistory{
			QuizID:      q.ID,
			Title:       q.Title,
			CreatedAt:   q.CreatedAt,
			Attempts:    attempts,
			CanAttempt:  attempt.CanAttempt(attempts, policy),
			MaxAttempts: policy.MaxAttempts,
			State:       attempt.StateOf(attempts, policy, false),
		})
	}
	return out, nil
}

// Scoreboard returns the live board for a quiz, building it from stored
// results the first time it is asked for.
func (s *GradingService) Scoreboard(ctx context.Context, quizID string) (*Board, error) {
	if s.boards == nil {
		return nil, fmt.Errorf("scoreboards not configured")
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	board, created := s.boards.GetOrCreate(quizID)
	if created {
		// The board is already visible to publish, so an attempt recorded
		// while seeding may arrive twice. Boards apply each record once.
		records, err := s.results.ListByQuiz(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		names := make(map[string]string)
		updates := make([]BoardUpdate, 0, len(records))
		for _, rec := range records {
			name, ok := names[rec.UserID]
			if !ok {
				name = s.displayName(ctx, rec.UserID)
				names[rec.UserID] = name
			}
			updates = append(updates, boardUpdate(quizID, name, rec))
		}
		board.seed(updates)
	}
	return board, nil
}

func (s *GradingService) publish(ctx context.Context, quizID, name string, rec domain.AttemptRecord) {
	if s.boards == nil {
		return
	}
	if name == "" {
		name = s.displayName(ctx, rec.UserID)
	}
	if err := s.boards.Publish(ctx, boardUpdate(quizID, name, rec)); err != nil {
		s.logger.Warn("publish scoreboard update",
			zap.String("quiz_id", quizID),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
}

func boardUpdate(quizID, name string, rec domain.AttemptRecord) BoardUpdate {
	return BoardUpdate{
		QuizID:      quizID,
		RecordID:    rec.ID,
		UserID:      rec.UserID,
		Name:        name,
		Score:       rec.Score,
		SubmittedAt: rec.SubmittedAt,
	}
}

func (s *GradingService) notifySubmission(ctx context.Context, user domain.AuthenticatedUser, def domain.QuizDefinition, rec domain.AttemptRecord, report domain.ScoreReport, passMark float64) bool {
	name := user.Name
	if name == "" {
		name = s.displayName(ctx, user.ID)
	}
	notice := SubmissionNotice{
		StudentName:   name,
		QuizTitle:     def.Title,
		Score:         rec.Score,
		AttemptNumber: rec.AttemptNumber,
		Passed:        report.Passed(passMark),
		Correct:       report.Correct,
		Total:         report.Total,
		Sections:      report.Sections(),
		SubmittedAt:   rec.SubmittedAt,
		ResultURL:     s.baseURL + "/results/" + rec.ID,
	}
	err := s.notifier.NotifySubmission(ctx, s.adminEmail, notice)
	s.observer.ObserveNotification("submission", err == nil)
	if err != nil {
		s.logger.Warn("admin notification failed", zap.String("result_id", rec.ID), zap.Error(err))
		return false
	}
	if err := s.results.MarkNotified(ctx, rec.ID); err != nil {
		s.logger.Warn("mark notified failed", zap.String("result_id", rec.ID), zap.Error(err))
	}
	return true
}

func (s *GradingService) displayName(ctx context.Context, userID string) string {
	if u, err := s.users.GetUser(ctx, userID); err == nil {
		return u.StudentID
	}
	return userID
}

func (s *GradingService) refuse(status Status, history []domain.AttemptRecord, policy domain.AttemptPolicy) Outcome {
	s.observer.ObserveSubmission(string(status), 0, false)
	return s.refusal(status, history, policy)
}

func (s *GradingService) refusal(status Status, history []domain.AttemptRecord, policy domain.AttemptPolicy) Outcome {
	out := Outcome{Status: status, CanRetake: attempt.CanAttempt(history, policy)}
	if latest, ok := attempt.MostRecent(history); ok {
		out.Record = latest
		out.AttemptNumber = attempt.Count(history)
	}
	switch status {
	case StatusDuplicate:
		out.Message = "Your quiz has already been submitted. Here are your results."
	case StatusStale:
		out.Message = "This attempt has already been submitted."
	case StatusExhausted:
		out.Message = fmt.Sprintf("You have reached the maximum number of attempts (%d) for this quiz!", policy.MaxAttempts)
	}
	return out
}
