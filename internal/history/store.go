package history

import "sync"

// Store persists history entries.
type Store interface {
	// Load returns up to limit most recent commands, oldest first.
	Load(limit int) ([]string, error)
	// Append records a command.
	Append(command string) error
	// Clear removes every command.
	Clear() error
	// Close releases resources.
	Close() error
}

// Memory is an in-memory store.
type Memory struct {
	mu       sync.RWMutex
	commands []string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns up to limit most recent commands.
func (m *Memory) Load(limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if limit > 0 && len(m.commands) > limit {
		start = len(m.commands) - limit
	}
	return append([]string(nil), m.commands[start:]...), nil
}

// Append records a command.
func (m *Memory) Append(command string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	return nil
}

// Clear removes every command.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = nil
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
