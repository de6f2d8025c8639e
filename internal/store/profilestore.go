package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"uk.co.dudmesh.profiles/internal/model"
)

const profileDBName = "profiles.db"

type Config interface {
	DataDir() string
}

type profileStore struct {
	db *sqlx.DB
}

// NewProfileStore opens (creating if needed) the profile database in the
// configured data directory.
func NewProfileStore(config Config) (*profileStore, error) {
	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbName := path.Join(config.DataDir(), profileDBName)
	db, err := sqlx.Connect("sqlite3", "file:"+dbName+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &profileStore{db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return s, nil
}

func (s *profileStore) Close() error {
	return s.db.Close()
}

func (s *profileStore) createTables() error {
	_, err := s.db.Exec(`create table if not exists profile(
		ID             text not null primary key,
		CreatedAt      DATETIME not null,
		FirstName      text not null,
		LastName       text not null,
		Dob            DATE not null,
		Location       text not null,
		ProfilePicture text not null,
		Interests      text not null,
		Sex            text not null,
		Email          text not null,
		Passcode       text not null
	)`)
	if err != nil {
		return fmt.Errorf("creating profile table: %w", err)
	}

	_, err = s.db.Exec(`create unique index if not exists profile_email on profile(Email)`)
	if err != nil {
		return fmt.Errorf("creating email index: %w", err)
	}

	return nil
}

// Add inserts profile and returns its id. A second profile with the same
// email fails with model.ErrorEmailExists.
func (s *profileStore) Add(ctx context.Context, profile *model.Profile) (model.ProfileID, error) {
	res, err := s.db.NamedExecContext(ctx, `insert into profile
		(ID, CreatedAt, FirstName, LastName, Dob, Location, ProfilePicture, Interests, Sex, Email, Passcode)
		values(:ID, :CreatedAt, :FirstName, :LastName, :Dob, :Location, :ProfilePicture, :Interests, :Sex, :Email, :Passcode)`, profile)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", model.ErrorEmailExists
		}
		return "", fmt.Errorf("inserting profile: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return "", fmt.Errorf("getting rows affected: %w", err)
	} else if rows != 1 {
		return "", fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	return profile.ID, nil
}

func (s *profileStore) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := s.db.GetContext(ctx, profile, `select * from profile where Email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorProfileNotFound
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return profile, nil
}

func (s *profileStore) Fetch(ctx context.Context, id model.ProfileID) (*model.Profile, error) {
	profile := &model.Profile{}
	err := s.db.GetContext(ctx, profile, `select * from profile where ID = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorProfileNotFound
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return profile, nil
}
