package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/config"
	"quiz-grading-service/internal/infra/bunstore"
	"quiz-grading-service/internal/infra/memory"
	pgloader "quiz-grading-service/internal/infra/postgres"
	rediscache "quiz-grading-service/internal/infra/redis"
	"quiz-grading-service/internal/logging"
	"quiz-grading-service/internal/metrics"
	"quiz-grading-service/internal/notify"
	"quiz-grading-service/internal/scoring"
)

// backend is the wired service graph plus whatever must be closed on exit.
type backend struct {
	grading *app.GradingService
	admin   *app.AdminService
	auth    *app.AuthService
	metrics *metrics.Metrics
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func migrateDB(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	group, err := bunstore.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		logger.Info("database schema up to date")
	} else {
		logger.Info("migrations applied", zap.String("group", group.String()))
	}
	return nil
}

type stores struct {
	catalog app.QuizCatalog
	loader  memory.QuizLoader
	results app.ResultRepository
	users   app.UserRepository
}

// openStores picks the persistence layer: bun on Postgres or SQLite when a
// database is configured, process memory otherwise. On Postgres the quiz
// cache loads definitions through a pgx pool.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger, b *backend) (stores, error) {
	if cfg.Database.Driver == "" {
		logger.Warn("no database configured, data is kept in memory")
		catalog := memory.NewCatalog()
		return stores{
			catalog: catalog,
			loader:  catalog,
			results: memory.NewResultStore(),
			users:   memory.NewUserStore(),
		}, nil
	}

	db, err := bunstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return stores{}, err
	}
	b.closers = append(b.closers, func() { db.Close() })
	if err := migrateDB(ctx, db, logger); err != nil {
		return stores{}, err
	}

	quizStore := bunstore.NewQuizStore(db)
	s := stores{
		catalog: quizStore,
		loader:  quizStore,
		results: bunstore.NewResultStore(db),
		users:   bunstore.NewUserStore(db),
	}
	if cfg.Database.Driver == bunstore.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		s.loader = pgloader.NewQuizLoader(pool)
	}
	return s, nil
}

func newBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{metrics: metrics.New()}
	s, err := openStores(ctx, cfg, logger, b)
	if err != nil {
		b.Close()
		return nil, err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizzes app.QuizRepository
		locks   app.PairLocker
		boards  app.BoardRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		quizzes = rediscache.NewQuizRepository(client, s.loader, quizTTL)
		locks = rediscache.NewPairLocker(client, 0)
		boardStore, err := rediscache.NewBoardStore(ctx, client, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { boardStore.Close() })
		boards = boardStore
	} else {
		quizzes = memory.NewQuizRepository(s.loader, quizTTL)
		locks = memory.NewPairLocker()
		boards = memory.NewBoardStore()
	}

	var notifier app.Notifier = notify.NewLog(logger)
	mailConfigured := cfg.Mail.SendGridAPIKey != "" && cfg.Mail.FromEmail != ""
	if mailConfigured {
		notifier = notify.NewSendGrid(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail, logger)
	}

	policy := cfg.AttemptPolicy()
	settings := app.NewSettingsStore(app.Settings{
		MaxAttempts:     policy.MaxAttempts,
		DuplicateWindow: policy.DuplicateWindow,
		MailEnabled:     cfg.Mail.Enabled,
		MailConfigured:  mailConfigured,
		PassMark:        cfg.Scoring.PassMark,
	})

	b.grading = app.NewGradingService(quizzes, s.catalog, s.results, s.users, locks, settings,
		app.WithScorer(scoring.NewScorer(scoring.WithThreshold(cfg.Scoring.FuzzyThreshold))),
		app.WithNotifier(notifier),
		app.WithObserver(b.metrics),
		app.WithLogger(logger),
		app.WithBoards(boards),
		app.WithAdminEmail(cfg.Mail.AdminEmail),
		app.WithBaseURL(cfg.Mail.BaseURL),
	)
	b.admin = app.NewAdminService(app.AdminDeps{
		Catalog:  s.catalog,
		Quizzes:  quizzes,
		Results:  s.results,
		Users:    s.users,
		Settings: settings,
		Boards:   boards,
		Notifier: notifier,
		Observer: b.metrics,
		Logger:   logger,
		BaseURL:  cfg.Mail.BaseURL,
	})
	b.auth = app.NewAuthService(s.users, app.AdminAccount{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
	}, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, config.DefaultTokenTTL))
	return b, nil
}
