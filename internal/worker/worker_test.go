package worker

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/gorepl/internal/workspace"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Post(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) of(t EventType) []string {
	var out []string
	for _, e := range r.all() {
		if e.Type == t {
			out = append(out, e.Payload)
		}
	}
	return out
}

func newTestWorker(t *testing.T, cfg Config, opts ...Option) (*Worker, *recorder) {
	t.Helper()
	rec := &recorder{}
	w, err := New(cfg, rec, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Initialize())
	rec.reset()
	return w, rec
}

func input(t *testing.T, w *Worker, code string) {
	t.Helper()
	require.NoError(t, w.ReplInput(RunPayload{Code: code}))
}

func TestInitialize(t *testing.T) {
	rec := &recorder{}
	w, err := New(DefaultConfig(), rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Initialize())
	require.NoError(t, w.Initialize())

	assert.Equal(t, []Event{
		{Type: EventWriteln, Payload: w.Banner()},
		{Type: EventWrite, Payload: PS1},
		{Type: EventUnlock},
	}, rec.all())
}

func TestReplInputPrintsResult(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "1 + 1")
	assert.Equal(t, []Event{
		{Type: EventWriteln, Payload: "1 + 1"},
		{Type: EventWriteln, Payload: "2"},
		{Type: EventWrite, Payload: "\n" + PS1},
	}, rec.all())
}

func TestReplInputNoEcho(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoEcho = true
	w, rec := newTestWorker(t, cfg)

	input(t, w, `"abc"`)
	assert.Equal(t, []string{`"abc"`}, rec.of(EventWriteln))
}

func TestReplInputIncomplete(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "function twice(x) {")
	assert.Equal(t, []string{PS2}, rec.of(EventWrite))

	rec.reset()
	input(t, w, "return x * 2 }")
	input(t, w, "twice(4)")
	assert.Contains(t, rec.of(EventWriteln), "8")
}

func TestReplInputNullPrintsNothing(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "null")
	input(t, w, "var unused = 1")
	assert.Equal(t, []string{"null", "var unused = 1"}, rec.of(EventWriteln))
}

func TestReplInputSyntaxError(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "let = = 1")
	errs := rec.of(EventError)
	require.Len(t, errs, 1)
	assert.NotEmpty(t, errs[0])
	assert.Equal(t, []string{"\n" + PS1}, rec.of(EventWrite))
}

func TestReplInputRuntimeError(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, `throw new Error("boom")`)
	errs := rec.of(EventError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Error: boom")
}

func TestReplInputConsoleOutput(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, `console.log("hi"); console.error("oops")`)
	assert.Contains(t, rec.of(EventWriteln), "hi")
	assert.Equal(t, []string{"oops"}, rec.of(EventError))
}

func TestReplInputLastResult(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "40 + 2")
	input(t, w, "null")
	rec.reset()
	input(t, w, "_")
	assert.Equal(t, []string{"_", "42"}, rec.of(EventWriteln))
}

func TestReplInputTruncatesLongOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReprLimit = 10
	w, rec := newTestWorker(t, cfg)

	input(t, w, `"x".repeat(50)`)
	lines := rec.of(EventWriteln)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], TruncatedSeparator)
	assert.True(t, strings.HasPrefix(lines[1], `"xxxx`))
}

func TestReplInputRecordsHistory(t *testing.T) {
	w, _ := newTestWorker(t, DefaultConfig())

	input(t, w, "1")
	input(t, w, "   ")
	input(t, w, "2")
	assert.Equal(t, []string{"1", "2"}, w.History().Entries())
}

func TestReplClear(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "[1,")
	rec.reset()
	require.NoError(t, w.ReplClear())
	assert.Equal(t, []Event{
		{Type: EventError, Payload: "\nKeyboardInterrupt"},
		{Type: EventWrite, Payload: "\n" + PS1},
	}, rec.all())

	rec.reset()
	input(t, w, "3")
	assert.Equal(t, []string{"3", "3"}, rec.of(EventWriteln))
}

func TestRun(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "var before = 1")
	rec.reset()

	require.NoError(t, w.Run(RunPayload{Code: "var a = 5\na * 2"}))
	assert.Equal(t, []Event{
		{Type: EventWriteln, Payload: RunCode},
		{Type: EventLock},
		{Type: EventWriteln, Payload: "10"},
		{Type: EventWrite, Payload: "\n" + PS1},
		{Type: EventUnlock},
	}, rec.all())

	rec.reset()
	input(t, w, "a")
	input(t, w, "typeof before")
	assert.Equal(t, []string{"a", "5", "typeof before", `"undefined"`}, rec.of(EventWriteln))
}

func TestRunErrorKeepsConsole(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "var kept = 7")
	require.NoError(t, w.Run(RunPayload{Code: "var lost = 1\nnope()"}))
	errs := rec.of(EventError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "ReferenceError")
	assert.Contains(t, errs[0], RunFilename)

	rec.reset()
	input(t, w, "kept")
	assert.Equal(t, []string{"kept", "7"}, rec.of(EventWriteln))
}

func TestRunExports(t *testing.T) {
	ws := workspace.NewMemory()
	require.NoError(t, ws.WriteFile("stale.txt", []byte("old")))
	w, rec := newTestWorker(t, DefaultConfig(), WithWorkspace(ws))

	require.NoError(t, w.Run(RunPayload{
		Code:    `require("fs").readFile("data.txt")`,
		Exports: []workspace.File{{Name: "data.txt", Content: "hello"}},
	}))
	assert.Contains(t, rec.of(EventWriteln), `"hello"`)
	assert.False(t, ws.Exists("stale.txt"))
}

func TestStackOverflowRestarts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.MaxCallStackSize = 64
	w, rec := newTestWorker(t, cfg)

	input(t, w, "var gone = 1")
	input(t, w, "function down() { return down() }; down()")

	assert.Equal(t, []string{crashNotice}, rec.of(EventSystem))
	assert.Contains(t, rec.of(EventWriteln), w.Banner())

	rec.reset()
	input(t, w, "typeof gone")
	assert.Contains(t, rec.of(EventWriteln), `"undefined"`)
}

func TestInterrupt(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	done := make(chan error, 1)
	go func() {
		done <- w.ReplInput(RunPayload{Code: "while (true) {}"})
	}()

	require.Eventually(t, func() bool {
		return w.interruptible()
	}, 5*time.Second, 5*time.Millisecond)
	w.Interrupt()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("evaluation was not interrupted")
	}
	assert.Contains(t, rec.of(EventError), "KeyboardInterrupt")
}

func TestInterruptBeforeEvaluationStarts(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	release := make(chan struct{})
	require.NoError(t, w.console.Namespace().Go(func(*goja.Runtime) { <-release }))

	done := make(chan error, 1)
	go func() {
		done <- w.ReplInput(RunPayload{Code: "while (true) {}"})
	}()

	require.Eventually(t, w.interruptible, 5*time.Second, time.Millisecond)
	w.Interrupt()
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled evaluation was not interrupted")
	}
	assert.Contains(t, rec.of(EventError), "KeyboardInterrupt")

	rec.reset()
	input(t, w, "1 + 2")
	assert.Contains(t, rec.of(EventWriteln), "3")
}

func TestInterruptIdle(t *testing.T) {
	w, _ := newTestWorker(t, DefaultConfig())
	assert.NotPanics(t, w.Interrupt)
}

func TestRestart(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	input(t, w, "var x = 1")
	rec.reset()
	require.NoError(t, w.Restart())
	assert.Empty(t, rec.of(EventSystem))
	assert.Equal(t, []string{w.Banner()}, rec.of(EventWriteln))

	rec.reset()
	input(t, w, "typeof x")
	assert.Contains(t, rec.of(EventWriteln), `"undefined"`)
}

func TestDispatch(t *testing.T) {
	w, rec := newTestWorker(t, DefaultConfig())

	payload, err := json.Marshal(RunPayload{Code: "6 * 7"})
	require.NoError(t, err)

	msg, err := ParseMessage([]byte(`{"type":"replInput","payload":` + string(payload) + `}`))
	require.NoError(t, err)
	_, err = w.Dispatch(msg)
	require.NoError(t, err)
	assert.Contains(t, rec.of(EventWriteln), "42")

	got, err := w.Dispatch(Message{Type: MessageHistoryPrevious})
	require.NoError(t, err)
	assert.Equal(t, "6 * 7", got)

	got, err = w.Dispatch(Message{Type: MessageHistoryNext})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = w.Dispatch(Message{Type: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = w.Dispatch(Message{Type: MessageRun, Payload: json.RawMessage(`"not an object"`)})
	assert.Error(t, err)
}

func TestIsPrompt(t *testing.T) {
	assert.True(t, IsPrompt(PS1))
	assert.True(t, IsPrompt("\n"+PS1))
	assert.True(t, IsPrompt(PS2))
	assert.False(t, IsPrompt("hello"))
}

func TestReplInputWithoutExportsKeepsFiles(t *testing.T) {
	ws := workspace.NewMemory()
	require.NoError(t, ws.WriteFile("notes.txt", []byte("keep")))
	w, _ := newTestWorker(t, DefaultConfig(), WithWorkspace(ws))

	input(t, w, "1")
	assert.True(t, ws.Exists("notes.txt"))

	require.NoError(t, w.ReplInput(RunPayload{Code: "2", Exports: []workspace.File{}}))
	assert.False(t, ws.Exists("notes.txt"))
}

func TestSessionID(t *testing.T) {
	w, _ := newTestWorker(t, DefaultConfig())

	first := w.SessionID()
	assert.NotEmpty(t, first)
	require.NoError(t, w.Restart())
	assert.NotEqual(t, first, w.SessionID())

	require.NoError(t, w.Close())
	assert.Empty(t, w.SessionID())
}

func TestNoBanner(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.NoBanner = true
	w, err := New(cfg, rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Initialize())
	assert.Empty(t, rec.of(EventWriteln))
}
