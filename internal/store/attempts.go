package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nrednav/cuid2"
	"uk.co.dudmesh.profiles/internal/model"
)

// attemptStore tracks failed logins per email. It lives in a private
// in-memory database: nothing survives Close or a process restart.
//
// Every method is a single statement on a single connection and so is atomic
// on its own. Callers that read, decide and then write (check Locked, verify,
// then Fail) can interleave with other requests for the same email.
type attemptStore struct {
	db          *sqlx.DB
	maxAttempts int
	now         func() time.Time
}

type attemptRow struct {
	Email         string `db:"Email"`
	Attempts      int    `db:"Attempts"`
	LastAttemptAt int64  `db:"LastAttemptAt"`
}

func (r *attemptRow) toModel() *model.LoginAttempt {
	return &model.LoginAttempt{
		Email:         r.Email,
		Attempts:      r.Attempts,
		LastAttemptAt: time.Unix(0, r.LastAttemptAt).UTC(),
	}
}

func NewAttemptStore(maxAttempts int) (*attemptStore, error) {
	if maxAttempts < 1 {
		maxAttempts = model.DefaultMaxLoginAttempts
	}

	db, err := sqlx.Connect("sqlite3", "file:attempts-"+cuid2.Generate()+"?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// the database only exists while its connection is open
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &attemptStore{db: db, maxAttempts: maxAttempts, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *attemptStore) init() error {
	_, err := s.db.Exec(`create table if not exists login_attempt (
		Email         text primary key,
		Attempts      integer not null default 0,
		LastAttemptAt integer not null
	)`)
	if err != nil {
		return fmt.Errorf("creating login_attempt table: %w", err)
	}
	return nil
}

func (s *attemptStore) Close() error {
	return s.db.Close()
}

func (s *attemptStore) MaxAttempts() int {
	return s.maxAttempts
}

// Get returns the current state for email; unknown emails have no attempts.
func (s *attemptStore) Get(ctx context.Context, email string) (*model.LoginAttempt, error) {
	row := attemptRow{}
	err := s.db.GetContext(ctx, &row, "SELECT Email, Attempts, LastAttemptAt FROM login_attempt WHERE Email = ?", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.LoginAttempt{Email: email}, nil
		}
		return nil, fmt.Errorf("getting login attempts: %w", err)
	}
	return row.toModel(), nil
}

// Fail records a failed attempt and returns the state after the increment.
func (s *attemptStore) Fail(ctx context.Context, email string) (*model.LoginAttempt, error) {
	row := attemptRow{}
	err := s.db.GetContext(ctx, &row, `INSERT INTO login_attempt (Email, Attempts, LastAttemptAt) VALUES (?, 1, ?)
		ON CONFLICT(Email) DO UPDATE SET Attempts = Attempts + 1, LastAttemptAt = excluded.LastAttemptAt
		RETURNING Email, Attempts, LastAttemptAt`, email, s.now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("recording failed login: %w", err)
	}
	return row.toModel(), nil
}

func (s *attemptStore) Reset(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM login_attempt WHERE Email = ?", email)
	if err != nil {
		return fmt.Errorf("resetting login attempts: %w", err)
	}
	return nil
}

func (s *attemptStore) Locked(ctx context.Context, email string) (bool, error) {
	attempt, err := s.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return attempt.Locked(s.maxAttempts), nil
}

func (s *attemptStore) Remaining(ctx context.Context, email string) (int, error) {
	attempt, err := s.Get(ctx, email)
	if err != nil {
		return 0, err
	}
	return attempt.Remaining(s.maxAttempts), nil
}
