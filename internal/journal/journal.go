// Package journal keeps a history of exposures in SQLite.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/mj1618/dslr-remote/internal/camera"
	"github.com/mj1618/dslr-remote/internal/imaging"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Entry is one recorded exposure.
type Entry struct {
	ID       int64               `yaml:"id" json:"id"`
	Start    time.Time           `yaml:"start" json:"start"`
	Duration float64             `yaml:"duration" json:"duration"`
	Gain     int                 `yaml:"gain" json:"gain"`
	Bulb     bool                `yaml:"bulb,omitempty" json:"bulb,omitempty"`
	Format   string              `yaml:"format" json:"format"`
	Camera   string              `yaml:"camera" json:"camera"`
	Outcome  string              `yaml:"outcome" json:"outcome"`
	Path     string              `yaml:"path,omitempty" json:"path,omitempty"`
	Stats    *imaging.Statistics `yaml:"stats,omitempty" json:"stats,omitempty"`
	Error    string              `yaml:"error,omitempty" json:"error,omitempty"`
}

// Store wraps the journal database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exposures (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration REAL NOT NULL,
			gain INTEGER NOT NULL,
			bulb INTEGER NOT NULL,
			format TEXT NOT NULL,
			camera TEXT NOT NULL,
			outcome TEXT NOT NULL,
			path TEXT NOT NULL,
			error TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exposure_stats (
			exposure_id INTEGER PRIMARY KEY,
			min INTEGER NOT NULL,
			max INTEGER NOT NULL,
			mean INTEGER NOT NULL,
			median INTEGER NOT NULL,
			count INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exposures_started_at ON exposures(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordExposure stores a finished exposure and its image statistics.
func (s *Store) RecordExposure(ctx context.Context, e camera.Exposure) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO exposures (started_at, duration, gain, bulb, format, camera, outcome, path, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Start.UTC().Format(time.RFC3339Nano),
		e.Duration,
		e.Gain,
		e.Bulb,
		string(e.Format),
		e.Camera,
		e.Outcome.String(),
		e.Path,
		e.Err,
	)
	if err != nil {
		return err
	}
	if e.Stats != nil {
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exposure_stats (exposure_id, min, max, mean, median, count) VALUES (?, ?, ?, ?, ?, ?)`,
			id, e.Stats.Min, e.Stats.Max, e.Stats.Mean, e.Stats.Median, e.Stats.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.started_at, e.duration, e.gain, e.bulb, e.format, e.camera, e.outcome, e.path, e.error,
			st.min, st.max, st.mean, st.median, st.count
		FROM exposures e
		LEFT JOIN exposure_stats st ON st.exposure_id = e.id
		ORDER BY e.started_at DESC, e.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			started string
			lo      sql.NullInt64
			hi      sql.NullInt64
			mean    sql.NullInt64
			median  sql.NullInt64
			count   sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &started, &e.Duration, &e.Gain, &e.Bulb, &e.Format, &e.Camera, &e.Outcome, &e.Path, &e.Error,
			&lo, &hi, &mean, &median, &count); err != nil {
			return nil, err
		}
		if e.Start, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		if count.Valid {
			e.Stats = &imaging.Statistics{
				Min:    int32(lo.Int64),
				Max:    int32(hi.Int64),
				Mean:   int32(mean.Int64),
				Median: int32(median.Int64),
				Count:  int(count.Int64),
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
