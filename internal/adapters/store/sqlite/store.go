// Package sqlite implements the room store on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is a ports.RoomStore backed by a single sqlite database.
type Store struct {
	db *sql.DB
}

var _ ports.RoomStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	statements := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS rooms (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			result_percentage REAL,
			result_message TEXT,
			result_source TEXT,
			result_breakdown TEXT,
			result_computed_at INTEGER
		);`,
		"CREATE INDEX IF NOT EXISTS idx_rooms_result_computed_at ON rooms(result_computed_at);",
		`CREATE TABLE IF NOT EXISTS participants (
			room_key TEXT NOT NULL,
			uid TEXT NOT NULL,
			joined_at INTEGER NOT NULL,
			PRIMARY KEY (room_key, uid)
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_key TEXT NOT NULL,
			uid TEXT NOT NULL,
			q1 TEXT NOT NULL,
			q2 TEXT NOT NULL,
			q3 TEXT NOT NULL,
			submitted_at INTEGER NOT NULL,
			UNIQUE (room_key, uid)
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// CreateRoom inserts a room with its initial participants.
func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO rooms (key, name, created_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING",
		room.Key, room.Name, millis(room.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrAlreadyExists
	}
	for _, p := range room.Participants {
		if err := upsertParticipant(ctx, tx, room.Key, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertParticipant(ctx context.Context, db execer, key string, p domain.Participant) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO participants (room_key, uid, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT(room_key, uid) DO UPDATE SET joined_at = excluded.joined_at`,
		key, p.UID, millis(p.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert participant: %w", err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, key string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM rooms WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlite: lookup room: %w", err)
	}
	return nil
}

// GetRoom loads a room with its participants, submissions and result.
func (s *Store) GetRoom(ctx context.Context, key string) (domain.Room, error) {
	var (
		room       domain.Room
		createdAt  int64
		percentage sql.NullFloat64
		message    sql.NullString
		source     sql.NullString
		breakdown  sql.NullString
		computedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, name, created_at, result_percentage, result_message, result_source,
		        result_breakdown, result_computed_at
		 FROM rooms WHERE key = ?`, key,
	).Scan(&room.Key, &room.Name, &createdAt, &percentage, &message, &source, &breakdown, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("sqlite: get room: %w", err)
	}
	room.CreatedAt = fromMillis(createdAt)

	if computedAt.Valid {
		result := &domain.Result{
			Percentage: percentage.Float64,
			Message:    message.String,
			Source:     source.String,
			ComputedAt: fromMillis(computedAt.Int64),
		}
		if breakdown.Valid && breakdown.String != "" {
			if err := json.Unmarshal([]byte(breakdown.String), &result.Breakdown); err != nil {
				return domain.Room{}, fmt.Errorf("sqlite: decode breakdown: %w", err)
			}
		}
		room.Result = result
	}

	if room.Participants, err = s.participants(ctx, key); err != nil {
		return domain.Room{}, err
	}
	if room.Submissions, err = s.submissions(ctx, key); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *Store) participants(ctx context.Context, key string) ([]domain.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT uid, joined_at FROM participants WHERE room_key = ? ORDER BY joined_at, uid", key)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var joined int64
		if err := rows.Scan(&p.UID, &joined); err != nil {
			return nil, fmt.Errorf("sqlite: scan participant: %w", err)
		}
		p.JoinedAt = fromMillis(joined)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate participants: %w", err)
	}
	return out, nil
}

func (s *Store) submissions(ctx context.Context, key string) ([]domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT uid, q1, q2, q3, submitted_at FROM submissions WHERE room_key = ? ORDER BY id", key)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		var submitted int64
		if err := rows.Scan(&sub.UID, &sub.Answers.Q1, &sub.Answers.Q2, &sub.Answers.Q3, &submitted); err != nil {
			return nil, fmt.Errorf("sqlite: scan submission: %w", err)
		}
		sub.SubmittedAt = fromMillis(submitted)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate submissions: %w", err)
	}
	return out, nil
}

// AddParticipant records p as a member of the room.
func (s *Store) AddParticipant(ctx context.Context, key string, p domain.Participant) error {
	if err := s.exists(ctx, key); err != nil {
		return err
	}
	return upsertParticipant(ctx, s.db, key, p)
}

// PutSubmission stores or replaces a participant's answers. A replaced
// submission keeps its original position.
func (s *Store) PutSubmission(ctx context.Context, key string, sub domain.Submission) error {
	if err := s.exists(ctx, key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (room_key, uid, q1, q2, q3, submitted_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(room_key, uid) DO UPDATE SET
		   q1 = excluded.q1, q2 = excluded.q2, q3 = excluded.q3, submitted_at = excluded.submitted_at`,
		key, sub.UID, sub.Answers.Q1, sub.Answers.Q2, sub.Answers.Q3, millis(sub.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put submission: %w", err)
	}
	return nil
}

// SetResult stores r unless the room already has a result.
func (s *Store) SetResult(ctx context.Context, key string, r domain.Result) (bool, error) {
	var breakdown sql.NullString
	if len(r.Breakdown) > 0 {
		raw, err := json.Marshal(r.Breakdown)
		if err != nil {
			return false, fmt.Errorf("sqlite: encode breakdown: %w", err)
		}
		breakdown = sql.NullString{String: string(raw), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET result_percentage = ?, result_message = ?, result_source = ?,
		   result_breakdown = ?, result_computed_at = ?
		 WHERE key = ? AND result_computed_at IS NULL`,
		r.Percentage, r.Message, r.Source, breakdown, millis(r.ComputedAt), key,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: set result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, nil
	}
	if err := s.exists(ctx, key); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteRoom removes a room and everything attached to it.
func (s *Store) DeleteRoom(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := deleteRooms(ctx, tx, []string{key})
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// DeleteExpiredBefore removes rooms scored before cutoff. A room whose result
// write failed expires from the time of its second submission.
func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT r.key FROM rooms r
		 WHERE (r.result_computed_at IS NOT NULL AND r.result_computed_at < ?)
		    OR (r.result_computed_at IS NULL AND (
		         SELECT s.submitted_at FROM submissions s
		         WHERE s.room_key = r.key ORDER BY s.id LIMIT 1 OFFSET 1
		       ) < ?)`,
		millis(cutoff), millis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("sqlite: list expired rooms: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return 0, fmt.Errorf("sqlite: scan expired room: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("sqlite: iterate expired rooms: %w", err)
	}

	n, err := deleteRooms(ctx, tx, keys)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

func deleteRooms(ctx context.Context, tx *sql.Tx, keys []string) (int, error) {
	deleted := 0
	for _, key := range keys {
		for _, stmt := range []string{
			"DELETE FROM submissions WHERE room_key = ?",
			"DELETE FROM participants WHERE room_key = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
				return 0, fmt.Errorf("sqlite: delete room %q: %w", key, err)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE key = ?", key)
		if err != nil {
			return 0, fmt.Errorf("sqlite: delete room %q: %w", key, err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}
	return deleted, nil
}
