package api

import (
	"sync/atomic"
	"time"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
)

// Snapshot is the most recent refresh outcome served by the read endpoints.
// It is replaced wholesale and never mutated after Store.
type Snapshot struct {
	Result        *engine.BatchResult
	KeywordSource string
	Warnings      []string
	RefreshedAt   time.Time
}

type snapshotStore struct {
	p atomic.Pointer[Snapshot]
}

func (s *snapshotStore) Load() *Snapshot { return s.p.Load() }

func (s *snapshotStore) Store(snap *Snapshot) {
	if snap == nil || snap.Result == nil {
		return
	}
	s.p.Store(snap)
}

// Snapshot returns the current snapshot, or nil before the first refresh.
func (s *Server) Snapshot() *Snapshot {
	return s.snap.Load()
}
