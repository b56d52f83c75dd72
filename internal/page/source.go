// Package page provides snapshot access to the tracked token-feed page.
package page

import "context"

// Snapshot is one observation of the rendered page at a point in time.
type Snapshot struct {
	Text       string // flattened visible text of the document body
	HTML       string // raw outer HTML, needed for attribute-level fields
	CapturedAt int64  // Unix timestamp in milliseconds
}

// Source yields snapshots of the tracked page on demand. Implementations
// own the underlying render session; Start and Close bracket one session
// and a failed session must be restarted from scratch via Start.
type Source interface {
	// Start navigates to the page and waits for it to become ready.
	// Bounded by the implementation's navigation timeout.
	Start(ctx context.Context) error
	// Capture returns the current rendered text and HTML.
	Capture(ctx context.Context) (*Snapshot, error)
	// Close releases the render session. Safe to call more than once.
	Close() error
}
