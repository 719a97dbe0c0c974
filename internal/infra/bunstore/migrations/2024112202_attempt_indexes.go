package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

// One row per (user, quiz, attempt number) guards against two instances
// recording the same attempt.
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateIndex().
				Model((*attempt)(nil)).
				Index("attempts_user_quiz_number_uq").
				Unique().
				IfNotExists().
				Column("user_id", "quiz_id", "attempt_number").
				Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateIndex().
				Model((*attempt)(nil)).
				Index("attempts_quiz_idx").
				IfNotExists().
				Column("quiz_id").
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, name := range []string{"attempts_quiz_idx", "attempts_user_quiz_number_uq"} {
				if _, err := db.NewDropIndex().Index(name).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
