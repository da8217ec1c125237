// Package history keeps the commands entered at the prompt and lets the
// host walk back and forth through them.
package history

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// MaxLength is the number of commands kept before the oldest is dropped.
const MaxLength = 100

// History is a bounded list of commands with a navigation cursor. The cursor
// is an offset from the live prompt: 0 is the prompt itself, -1 the most
// recent command, -len the oldest.
type History struct {
	mu       sync.Mutex
	entries  []string
	position int
	max      int
	store    Store
	log      logrus.FieldLogger
}

// New creates a history seeded from store. A nil store keeps history in memory.
func New(store Store, limit int, log logrus.FieldLogger) (*History, error) {
	if limit <= 0 {
		limit = MaxLength
	}
	if store == nil {
		store = NewMemory()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	entries, err := store.Load(limit)
	if err != nil {
		return nil, err
	}

	return &History{
		entries: entries,
		max:     limit,
		store:   store,
		log:     log,
	}, nil
}

// Push records command and resets the cursor to the live prompt.
func (h *History) Push(command string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.position = 0
	if len(h.entries) >= h.max {
		h.entries = h.entries[len(h.entries)-h.max+1:]
	}
	h.entries = append(h.entries, command)

	if err := h.store.Append(command); err != nil {
		h.log.WithError(err).Warn("Failed to persist history entry")
	}
}

// Previous moves one command back, stopping at the oldest. It reports false
// when there is no history.
func (h *History) Previous() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return "", false
	}
	h.position = max(h.position-1, -len(h.entries))
	return h.entries[len(h.entries)+h.position], true
}

// Next moves one command forward. Once back at the live prompt it reports
// false.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return "", false
	}
	h.position = min(h.position+1, 0)
	if h.position == 0 {
		return "", false
	}
	return h.entries[len(h.entries)+h.position], true
}

// Entries returns a copy of the commands, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Clear forgets every command, including persisted ones.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.position = 0
	return h.store.Clear()
}

// Close releases the backing store.
func (h *History) Close() error {
	return h.store.Close()
}
