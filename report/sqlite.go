package report

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/session"
)

const schema = `CREATE TABLE IF NOT EXISTS round_results (
	run INTEGER NOT NULL,
	round INTEGER NOT NULL,
	bag TEXT NOT NULL,
	drawn TEXT NOT NULL,
	shape TEXT NOT NULL,
	actual_state TEXT NOT NULL,
	exact_probability REAL NOT NULL,
	prob_bad REAL NOT NULL,
	prob_unfavorable REAL NOT NULL,
	prob_neutral REAL NOT NULL,
	prob_favorable REAL NOT NULL,
	prob_unknown REAL NOT NULL,
	draw_total INTEGER NOT NULL,
	size_mismatch INTEGER NOT NULL,
	PRIMARY KEY (run, round)
)`

const insertRound = `INSERT INTO round_results (
	run, round, bag, drawn, shape, actual_state, exact_probability,
	prob_bad, prob_unfavorable, prob_neutral, prob_favorable, prob_unknown,
	draw_total, size_mismatch
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const writeAttempts = 5

// SQLiteStore appends rounds to a flat round_results table. Each store
// writes under a new run number, so one file can hold many sessions.
type SQLiteStore struct {
	db  *sql.DB
	run int
}

// StoredRound is a row read back from the table.
type StoredRound struct {
	Round            int
	Bag              string
	Drawn            string
	Shape            string
	ActualState      string
	ExactProbability float64
	SizeMismatch     bool
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create round_results: %w", err)
	}
	var last sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(run) FROM round_results`).Scan(&last); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("find last run: %w", err)
	}
	s := &SQLiteStore{db: db, run: int(last.Int64) + 1}
	log.Debug().Str("path", path).Int("run", s.run).Msg("opened-sqlite-store")
	return s, nil
}

// Run is the run number this store writes under.
func (s *SQLiteStore) Run() int {
	return s.run
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

// RecordRound inserts the round, retrying while the database is locked by
// another writer.
func (s *SQLiteStore) RecordRound(r *session.RoundResult) error {
	palette := r.Before.Palette()
	mismatch := 0
	if r.SizeMismatch {
		mismatch = 1
	}
	args := []any{
		s.run, r.Round, r.Before.String(), r.Draw.Labeled(palette),
		r.Shape.String(), r.Class.String(), r.Probability,
		r.Distribution.Get(classifier.Bad),
		r.Distribution.Get(classifier.Unfavorable),
		r.Distribution.Get(classifier.Neutral),
		r.Distribution.Get(classifier.Favorable),
		r.Distribution.Get(classifier.Unknown),
		r.DrawTotal, mismatch,
	}
	return retry.Do(
		func() error {
			_, err := s.db.Exec(insertRound, args...)
			return err
		},
		retry.Attempts(writeAttempts),
		retry.RetryIf(isBusy),
		retry.Delay(20*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Debug().Err(err).Uint("n", n).Int("round", r.Round).Msg("sqlite-busy-retrying")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

// Rounds reads back this run's rows in round order.
func (s *SQLiteStore) Rounds() ([]StoredRound, error) {
	rows, err := s.db.Query(`SELECT round, bag, drawn, shape, actual_state, exact_probability, size_mismatch
		FROM round_results WHERE run = ? ORDER BY round`, s.run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoredRound
	for rows.Next() {
		var sr StoredRound
		var mismatch int
		if err := rows.Scan(&sr.Round, &sr.Bag, &sr.Drawn, &sr.Shape, &sr.ActualState,
			&sr.ExactProbability, &mismatch); err != nil {
			return nil, err
		}
		sr.SizeMismatch = mismatch != 0
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
