package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// Local is the device-side store: one JSON file per meeting in camelCase,
// used as the unauthenticated path and as a mirror for resilience. Not
// encrypted, not quota-managed.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create local store dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) path(id string) string {
	return filepath.Join(l.dir, id+".json")
}

func (l *Local) Save(m meeting.Meeting) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meeting: %w", err)
	}
	if err := os.WriteFile(l.path(m.ID), data, 0600); err != nil {
		return fmt.Errorf("write meeting %s: %w", m.ID, err)
	}
	return nil
}

func (l *Local) Load(id string) (meeting.Meeting, error) {
	data, err := os.ReadFile(l.path(id))
	if os.IsNotExist(err) {
		return meeting.Meeting{}, ErrNotFound
	}
	if err != nil {
		return meeting.Meeting{}, fmt.Errorf("read meeting %s: %w", id, err)
	}
	// Normalized on read: older records may use snake_case fields or plain
	// string transcripts.
	return meeting.DecodeMeeting(data)
}

func (l *Local) List() ([]meeting.Meeting, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("scan local store: %w", err)
	}

	var meetings []meeting.Meeting
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		m, err := l.Load(id)
		if err != nil {
			// A single corrupt record never breaks the listing.
			continue
		}
		meetings = append(meetings, m)
	}

	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].CreatedAt.After(meetings[j].CreatedAt)
	})
	return meetings, nil
}
