package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// ErrNotFound means no source had the requested meeting.
var ErrNotFound = errors.New("meeting not found")

// Remote is the backing database for authenticated users. Rows use
// snake_case columns and speaker-tagged transcript JSON; listing is ordered
// by creation time descending.
type Remote struct {
	db *sql.DB
}

func OpenRemote(path string) (*Remote, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	r := &Remote{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *Remote) Close() error {
	return r.db.Close()
}

func (r *Remote) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meetings (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		title        TEXT NOT NULL,
		date         DATETIME NOT NULL,
		duration_sec INTEGER NOT NULL DEFAULT 0,
		transcript   TEXT NOT NULL DEFAULT '[]',
		key_points   TEXT NOT NULL DEFAULT '[]',
		action_items TEXT NOT NULL DEFAULT '[]',
		created_at   DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_meetings_user ON meetings(user_id, created_at DESC);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *Remote) Save(ctx context.Context, m meeting.Meeting) error {
	transcript, err := json.Marshal(m.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	keyPoints, err := json.Marshal(m.KeyPoints)
	if err != nil {
		return fmt.Errorf("encode key points: %w", err)
	}
	actionItems, err := json.Marshal(m.ActionItems)
	if err != nil {
		return fmt.Errorf("encode action items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO meetings
			(id, user_id, title, date, duration_sec, transcript, key_points, action_items, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Title, m.Date.UTC().Format(time.RFC3339),
		int64(m.Duration.Seconds()), string(transcript), string(keyPoints),
		string(actionItems), m.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

func (r *Remote) Load(ctx context.Context, userID, id string) (meeting.Meeting, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, date, duration_sec, transcript, key_points, action_items, created_at
		FROM meetings WHERE id = ? AND user_id = ?`, id, userID)
	return scanMeeting(row)
}

func (r *Remote) List(ctx context.Context, userID string) ([]meeting.Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, date, duration_sec, transcript, key_points, action_items, created_at
		FROM meetings WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row scanner) (meeting.Meeting, error) {
	var m meeting.Meeting
	var date, createdAt, transcript, keyPoints, actionItems string
	var durationSec int64

	err := row.Scan(&m.ID, &m.UserID, &m.Title, &date, &durationSec,
		&transcript, &keyPoints, &actionItems, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return meeting.Meeting{}, ErrNotFound
	}
	if err != nil {
		return meeting.Meeting{}, fmt.Errorf("scan meeting: %w", err)
	}

	m.Duration = time.Duration(durationSec) * time.Second
	if m.Date, err = time.Parse(time.RFC3339, date); err != nil {
		return meeting.Meeting{}, fmt.Errorf("parse date: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return meeting.Meeting{}, fmt.Errorf("parse created_at: %w", err)
	}

	// Transcript shape is normalized on read: rows written by older builds
	// may hold plain string arrays.
	if m.Transcript, err = meeting.DecodeTranscript([]byte(transcript)); err != nil {
		return meeting.Meeting{}, err
	}
	if err := json.Unmarshal([]byte(keyPoints), &m.KeyPoints); err != nil {
		return meeting.Meeting{}, fmt.Errorf("decode key points: %w", err)
	}
	if err := json.Unmarshal([]byte(actionItems), &m.ActionItems); err != nil {
		return meeting.Meeting{}, fmt.Errorf("decode action items: %w", err)
	}
	return m, nil
}
