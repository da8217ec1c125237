package worker

import "strings"

// EventType names an event the worker posts to its host.
type EventType string

const (
	EventWrite   EventType = "write"
	EventWriteln EventType = "writeln"
	EventError   EventType = "error"
	EventSystem  EventType = "system"
	EventLock    EventType = "lock"
	EventUnlock  EventType = "unlock"
)

// Prompts and markers written to the terminal. They carry ANSI colours so a
// host can forward them to a terminal emulator untouched.
const (
	PS1     = "\u001b[32;1m>>> \u001b[0m"
	PS2     = "\u001b[32m... \u001b[0m"
	RunCode = "\u001b[3m\u001b[32m<run code>\u001b[0m"
)

// Event is one message from the worker to its host. Lock and unlock carry
// no payload.
type Event struct {
	Type    EventType `json:"type"`
	Payload string    `json:"payload,omitempty"`
}

// Poster receives events. Post may be called from the namespace's event loop
// as well as from the goroutine handling a message.
type Poster interface {
	Post(Event)
}

// PosterFunc adapts a function to a Poster.
type PosterFunc func(Event)

func (f PosterFunc) Post(e Event) { f(e) }

// IsPrompt reports whether a write event's payload is a prompt, optionally
// preceded by newlines.
func IsPrompt(payload string) bool {
	trimmed := strings.TrimLeft(payload, "\n")
	return trimmed == PS1 || trimmed == PS2
}

type poster struct {
	p Poster
}

func (p poster) write(text string)  { p.p.Post(Event{Type: EventWrite, Payload: text}) }
func (p poster) writeln(line string) { p.p.Post(Event{Type: EventWriteln, Payload: line}) }
func (p poster) error(msg string)   { p.p.Post(Event{Type: EventError, Payload: msg}) }
func (p poster) system(msg string)  { p.p.Post(Event{Type: EventSystem, Payload: msg}) }
func (p poster) lock()              { p.p.Post(Event{Type: EventLock}) }
func (p poster) unlock()            { p.p.Post(Event{Type: EventUnlock}) }

func (p poster) prompt(newLine bool) {
	if newLine {
		p.write("\n" + PS1)
		return
	}
	p.write(PS1)
}

func (p poster) promptPending() { p.write(PS2) }

// lineWriter turns the guest console's line-at-a-time writes into events.
type lineWriter func(string)

func (w lineWriter) Write(b []byte) (int, error) {
	w(strings.TrimSuffix(string(b), "\n"))
	return len(b), nil
}
