package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

// Snapshot is an immutable set of normalized profiles keyed by user id.
// Callers take the snapshot active at request start and keep it for the whole request.
type Snapshot struct {
	Version uint64
	BuiltAt time.Time
	byID    map[string]Profile
}

// Get returns the profile for userID. The returned value shares slices and maps
// with the snapshot and must not be modified.
func (s *Snapshot) Get(userID string) (Profile, bool) {
	if s == nil {
		return Profile{}, false
	}
	p, ok := s.byID[userID]
	return p, ok
}

// Len returns the number of profiles in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}

// NewSnapshot normalizes raw records into a snapshot. Records without a user id
// are skipped; on duplicate ids the later record wins.
func NewSnapshot(version uint64, records []Raw) *Snapshot {
	byID := make(map[string]Profile, len(records))
	for _, r := range records {
		p := Normalize(r)
		if p.UserID == "" {
			continue
		}
		byID[p.UserID] = p
	}
	return &Snapshot{Version: version, BuiltAt: time.Now().UTC(), byID: byID}
}

// Source loads every raw profile record from a backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Raw, error)
}

// Store holds the active snapshot. Rebuild is the only writer; Current is lock-free.
type Store struct {
	src     Source
	mu      sync.Mutex // serializes rebuilds
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewStore creates a store with an empty snapshot; call Rebuild to populate it.
func NewStore(src Source) *Store {
	s := &Store{src: src}
	s.current.Store(NewSnapshot(0, nil))
	return s
}

// Current returns the active snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Rebuild reloads all records from the source and swaps in a new snapshot.
// On failure the previous snapshot stays active.
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.src.Load(ctx)
	if err != nil {
		return s.Current(), fmt.Errorf("profiles: load from %s: %w", s.src.Name(), err)
	}
	snap := NewSnapshot(s.version.Add(1), records)
	s.current.Store(snap)
	engine.IncrSnapshotRebuilds()

	slog.Info("profiles: snapshot rebuilt",
		slog.String("source", s.src.Name()),
		slog.Uint64("version", snap.Version),
		slog.Int("records", len(records)),
		slog.Int("profiles", snap.Len()),
	)
	return snap, nil
}

// RunRefresh rebuilds the snapshot every interval until ctx is done.
func (s *Store) RunRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Rebuild(ctx); err != nil {
				slog.Warn("profiles: refresh failed", slog.Any("error", err))
			}
		}
	}
}
