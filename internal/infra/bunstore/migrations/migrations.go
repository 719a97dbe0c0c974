// Package migrations holds the schema as bun migrations. They are written
// with bun's query builders so the same set runs on Postgres and SQLite.
// bun names each migration after its file, so files keep the
// <version>_<name>.go form.
package migrations

import (
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

type quiz struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	Data      string    `bun:"data,type:jsonb,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type attempt struct {
	bun.BaseModel `bun:"table:attempts"`

	ID            string    `bun:"id,pk"`
	UserID        string    `bun:"user_id,notnull"`
	QuizID        string    `bun:"quiz_id,notnull"`
	AttemptNumber int       `bun:"attempt_number,notnull"`
	Score         float64   `bun:"score,notnull"`
	Report        string    `bun:"report,type:jsonb,notnull"`
	Notified      bool      `bun:"notified,notnull,default:false"`
	SubmittedAt   time.Time `bun:"submitted_at,notnull"`
}

type student struct {
	bun.BaseModel `bun:"table:students"`

	ID           string    `bun:"id,pk"`
	StudentID    string    `bun:"student_id,notnull,unique"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}
