package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// Gateway routes meeting persistence: remote database when an authenticated
// user session exists, local storage otherwise, with the local store doubling
// as a mirror and read fallback.
type Gateway struct {
	remote *Remote // nil when no database is available
	local  *Local
	userID string
}

func NewGateway(remote *Remote, local *Local, userID string) *Gateway {
	return &Gateway{remote: remote, local: local, userID: userID}
}

func (g *Gateway) authenticated() bool {
	return g.remote != nil && g.userID != ""
}

// Save persists a meeting. With a user session the record goes to the remote
// database and is mirrored locally; without one it is local-only.
func (g *Gateway) Save(ctx context.Context, m meeting.Meeting) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}

	if g.authenticated() {
		m.UserID = g.userID
		if err := g.remote.Save(ctx, m); err != nil {
			return fmt.Errorf("save to remote store: %w", err)
		}
		// Mirror failures only degrade offline continuity; the save itself
		// succeeded.
		if err := g.local.Save(m); err != nil {
			log.Printf("store: local mirror failed for %s: %v", m.ID, err)
		}
		return nil
	}

	return g.local.Save(m)
}

// Load fetches a meeting: remote first, then a local scan, then ErrNotFound.
// Any remote error, including "not found", falls through to local.
func (g *Gateway) Load(ctx context.Context, id string) (meeting.Meeting, error) {
	if g.authenticated() {
		m, err := g.remote.Load(ctx, g.userID, id)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Printf("store: remote load failed for %s, trying local: %v", id, err)
		}
	}

	m, err := g.local.Load(id)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, ErrNotFound) {
		return meeting.Meeting{}, ErrNotFound
	}
	return meeting.Meeting{}, err
}

// List returns the user's meetings ordered by creation time descending,
// from whichever source is reachable.
func (g *Gateway) List(ctx context.Context) ([]meeting.Meeting, error) {
	if g.authenticated() {
		meetings, err := g.remote.List(ctx, g.userID)
		if err == nil {
			return meetings, nil
		}
		log.Printf("store: remote list failed, using local: %v", err)
	}
	return g.local.List()
}
