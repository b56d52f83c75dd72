package discovery

import (
	"strings"
	"sync"

	"base-token-tracker/internal/domain"
)

// KeyMode selects how the tracker derives a record's identity key.
type KeyMode string

const (
	// KeyContract admits one record ever per contract address. Maximal
	// noise suppression; a relisted address is never re-emitted.
	KeyContract KeyMode = "CONTRACT"
	// KeyContractName admits again when the parsed name changes for an
	// already seen address, tolerating the extractor correcting itself.
	KeyContractName KeyMode = "CONTRACT_NAME"
)

// IsValid checks if the mode is a valid value.
func (m KeyMode) IsValid() bool {
	return m == KeyContract || m == KeyContractName
}

// Tracker records which token identities have been observed. It never
// forgets: the seen set grows for the tracker's lifetime and is cleared
// only by constructing a new one on process restart. Delivery failures
// downstream do not un-admit a key.
type Tracker struct {
	mu   sync.Mutex
	mode KeyMode
	seen map[string]struct{}
}

// NewTracker creates a tracker with the given identity mode.
// An empty mode defaults to KeyContract.
func NewTracker(mode KeyMode) *Tracker {
	if mode == "" {
		mode = KeyContract
	}
	return &Tracker{
		mode: mode,
		seen: make(map[string]struct{}),
	}
}

// Admit reports whether rec's identity key is seen for the first time,
// recording it as a side effect. Safe for concurrent use.
func (t *Tracker) Admit(rec *domain.TokenRecord) bool {
	key := t.key(rec)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Seen returns the number of distinct identity keys recorded so far.
func (t *Tracker) Seen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func (t *Tracker) key(rec *domain.TokenRecord) string {
	contract := domain.NormalizeContract(rec.Contract)
	if t.mode == KeyContractName {
		return contract + "|" + strings.ToLower(strings.TrimSpace(rec.Name))
	}
	return contract
}
