package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

func testMeeting(id, title string, created time.Time) meeting.Meeting {
	return meeting.Meeting{
		ID:       id,
		UserID:   "user-1",
		Title:    title,
		Date:     created,
		Duration: 90 * time.Second,
		Transcript: []meeting.TranscriptEntry{
			{Text: "Hello team.", Speaker: "You"},
			{Text: "Let's begin.", Speaker: "You"},
		},
		KeyPoints:   []string{"Meeting opened"},
		ActionItems: []string{"Send notes"},
		CreatedAt:   created,
	}
}

func openTestRemote(t *testing.T) *Remote {
	t.Helper()

	r, err := OpenRemote(filepath.Join(t.TempDir(), "meetings.db"))
	if err != nil {
		t.Fatalf("OpenRemote() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRemote_SaveAndLoad(t *testing.T) {
	r := openTestRemote(t)
	ctx := context.Background()

	created := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	m := testMeeting("m-1", "Standup", created)

	if err := r.Save(ctx, m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := r.Load(ctx, "user-1", "m-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Title != "Standup" || got.Duration != 90*time.Second {
		t.Errorf("loaded meeting = %+v", got)
	}
	if !got.Date.Equal(created) {
		t.Errorf("Date = %v, want %v", got.Date, created)
	}
	if len(got.Transcript) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(got.Transcript))
	}
	if got.Transcript[0].Text != "Hello team." || got.Transcript[0].Speaker != "You" {
		t.Errorf("entry 0 = %+v, speaker tag lost", got.Transcript[0])
	}
	if got.Transcript[1].Text != "Let's begin." {
		t.Errorf("entry 1 = %+v, order lost", got.Transcript[1])
	}
	if len(got.KeyPoints) != 1 || len(got.ActionItems) != 1 {
		t.Errorf("insights lost: %+v", got)
	}
}

func TestRemote_SaveIsIdempotent(t *testing.T) {
	r := openTestRemote(t)
	ctx := context.Background()

	m := testMeeting("m-1", "First", time.Now().UTC())
	if err := r.Save(ctx, m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	m.Title = "Renamed"
	if err := r.Save(ctx, m); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	meetings, err := r.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(meetings) != 1 {
		t.Fatalf("got %d rows, want 1 after replace", len(meetings))
	}
	if meetings[0].Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", meetings[0].Title)
	}
}

func TestRemote_ListNewestFirst(t *testing.T) {
	r := openTestRemote(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"m-old", "m-mid", "m-new"} {
		m := testMeeting(id, id, base.Add(time.Duration(i)*time.Hour))
		if err := r.Save(ctx, m); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	meetings, err := r.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(meetings) != 3 {
		t.Fatalf("got %d meetings, want 3", len(meetings))
	}
	if meetings[0].ID != "m-new" || meetings[2].ID != "m-old" {
		t.Errorf("order = [%s %s %s], want newest first", meetings[0].ID, meetings[1].ID, meetings[2].ID)
	}
}

func TestRemote_LoadScopedToUser(t *testing.T) {
	r := openTestRemote(t)
	ctx := context.Background()

	if err := r.Save(ctx, testMeeting("m-1", "Private", time.Now().UTC())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := r.Load(ctx, "someone-else", "m-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() with wrong user error = %v, want ErrNotFound", err)
	}
}

func TestRemote_NormalizesLegacyTranscript(t *testing.T) {
	r := openTestRemote(t)
	ctx := context.Background()

	// Rows written before speaker tagging hold plain string arrays.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meetings (id, user_id, title, date, duration_sec, transcript, key_points, action_items, created_at)
		VALUES ('legacy', 'user-1', 'Old', '2025-01-01T10:00:00Z', 60, '["First line", "Second line"]', '[]', '[]', '2025-01-01T10:00:00Z')`)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	got, err := r.Load(ctx, "user-1", "legacy")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Transcript) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(got.Transcript))
	}
	if got.Transcript[0].Text != "First line" || got.Transcript[0].Speaker != "" {
		t.Errorf("entry 0 = %+v", got.Transcript[0])
	}
}

func TestLocal_SaveLoadList(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b"} {
		if err := local.Save(testMeeting(id, id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	got, err := local.Load("a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Transcript[0].Speaker != "You" {
		t.Errorf("speaker tag lost on local round trip: %+v", got.Transcript[0])
	}

	meetings, err := local.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(meetings) != 2 || meetings[0].ID != "b" {
		t.Errorf("List() = %v meetings, first %q; want 2 newest-first", len(meetings), meetings[0].ID)
	}

	if _, err := local.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLocal_ListSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	if err := local.Save(testMeeting("good", "Good", time.Now().UTC())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	meetings, err := local.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(meetings) != 1 || meetings[0].ID != "good" {
		t.Errorf("List() = %+v, want only the intact record", meetings)
	}
}

func TestGateway_AuthenticatedSaveMirrorsLocally(t *testing.T) {
	remote := openTestRemote(t)
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	g := NewGateway(remote, local, "user-1")
	ctx := context.Background()

	m := testMeeting("m-1", "Mirrored", time.Now().UTC())
	if err := g.Save(ctx, m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := remote.Load(ctx, "user-1", "m-1"); err != nil {
		t.Errorf("remote copy missing: %v", err)
	}
	if _, err := local.Load("m-1"); err != nil {
		t.Errorf("local mirror missing: %v", err)
	}
}

func TestGateway_UnauthenticatedIsLocalOnly(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	g := NewGateway(nil, local, "")
	ctx := context.Background()

	m := testMeeting("m-1", "Offline", time.Now().UTC())
	m.UserID = ""
	if err := g.Save(ctx, m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := g.Load(ctx, "m-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Title != "Offline" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestGateway_LoadFallsBackToLocal(t *testing.T) {
	remote := openTestRemote(t)
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	g := NewGateway(remote, local, "user-1")
	ctx := context.Background()

	// Present only in the local store, e.g. saved while the database was down.
	if err := local.Save(testMeeting("m-local", "Local only", time.Now().UTC())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := g.Load(ctx, "m-local")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Title != "Local only" {
		t.Errorf("Title = %q", got.Title)
	}

	if _, err := g.Load(ctx, "nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(nowhere) error = %v, want ErrNotFound", err)
	}
}

func TestGateway_RejectsInvalidMeeting(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	g := NewGateway(nil, local, "")

	m := testMeeting("", "No ID", time.Now().UTC())
	if err := g.Save(context.Background(), m); err == nil {
		t.Error("Save() accepted a meeting without an ID")
	}
}
