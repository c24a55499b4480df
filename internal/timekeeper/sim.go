package timekeeper

import (
	"context"
	"sync"
	"time"
)

// SimRTC is an in-memory RTC for tests and the non-hardware build.
type SimRTC struct {
	mu sync.Mutex
	t  time.Time
}

// NewSimRTC builds a SimRTC seeded with t.
func NewSimRTC(t time.Time) *SimRTC {
	return &SimRTC{t: t}
}

func (r *SimRTC) ReadTime(ctx context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.t, nil
}

func (r *SimRTC) WriteTime(ctx context.Context, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t = t
	return nil
}

// SimSNTP lets tests script a sequence of SyncStatus values, returning the
// last one once exhausted.
type SimSNTP struct {
	mu       sync.Mutex
	sequence []SyncStatus
	idx      int
}

// NewSimSNTP builds a SimSNTP that walks through sequence once, then repeats
// its last value.
func NewSimSNTP(sequence ...SyncStatus) *SimSNTP {
	return &SimSNTP{sequence: sequence}
}

func (s *SimSNTP) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sequence) == 0 {
		return SyncInProgress
	}
	if s.idx >= len(s.sequence) {
		return s.sequence[len(s.sequence)-1]
	}
	v := s.sequence[s.idx]
	s.idx++
	return v
}
