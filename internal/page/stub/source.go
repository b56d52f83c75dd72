// Package stub provides a scripted in-memory snapshot source for testing.
package stub

import (
	"context"
	"sync"
	"time"

	"base-token-tracker/internal/page"
)

// Source replays fixed snapshots in order, repeating the last one once
// exhausted. Implements page.Source.
type Source struct {
	mu        sync.Mutex
	snapshots []*page.Snapshot
	idx       int
	started   bool
	captures  int

	// StartErr, if set, is returned by Start.
	StartErr error
	// CaptureErr, if set, is returned by Capture.
	CaptureErr error
}

// NewSource creates a stub source replaying the given snapshots.
func NewSource(snapshots ...*page.Snapshot) *Source {
	return &Source{snapshots: snapshots}
}

// TextSnapshot is a convenience constructor for text-only snapshots.
func TextSnapshot(text string) *page.Snapshot {
	return &page.Snapshot{Text: text, CapturedAt: time.Now().UnixMilli()}
}

// Start marks the source as started.
func (s *Source) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	s.started = true
	return nil
}

// Capture returns the next scripted snapshot.
func (s *Source) Capture(_ context.Context) (*page.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CaptureErr != nil {
		return nil, s.CaptureErr
	}
	s.captures++
	if len(s.snapshots) == 0 {
		return &page.Snapshot{CapturedAt: time.Now().UnixMilli()}, nil
	}
	snap := s.snapshots[s.idx]
	if s.idx < len(s.snapshots)-1 {
		s.idx++
	}
	// Return a copy to prevent mutation.
	snapCopy := *snap
	return &snapCopy, nil
}

// Close marks the source as stopped.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// Captures returns how many times Capture succeeded.
func (s *Source) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// Verify interface compliance at compile time.
var _ page.Source = (*Source)(nil)
