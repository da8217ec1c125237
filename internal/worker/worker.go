// Package worker drives a REPL session from host messages and reports back
// through events: text to write, errors, system notices, and input lock
// changes. It is the layer a terminal, a browser bridge or a test talks to.
package worker

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/gorepl/internal/console"
	"github.com/itsmostafa/gorepl/internal/history"
	"github.com/itsmostafa/gorepl/internal/namespace"
	"github.com/itsmostafa/gorepl/internal/repr"
	"github.com/itsmostafa/gorepl/internal/session"
	"github.com/itsmostafa/gorepl/internal/version"
	"github.com/itsmostafa/gorepl/internal/workspace"
)

const (
	// RunNamespace names the fresh namespace each Run evaluates in.
	RunNamespace = "__run__"

	// RunFilename is the script name reported for Run code.
	RunFilename = "<exec>"

	// TruncatedSeparator marks the cut in shortened results.
	TruncatedSeparator = "\n<long output truncated>\n"

	crashNotice = "\nOops, something happened and we have to restart the interpreter. " +
		"Don't worry, it's not your fault. " +
		"You may continue once you see the prompt again.\n"
)

// Worker serialises host messages against one session.
type Worker struct {
	cfg     Config
	post    poster
	log     logrus.FieldLogger
	history *history.History
	ws      workspace.Workspace

	mu      sync.Mutex
	sess    *session.Session
	console *console.Console
	runNS   *namespace.Namespace

	// active is the console whose evaluation Interrupt aborts. interrupted
	// records an Interrupt that arrived before the input was scheduled.
	intMu       sync.Mutex
	active      *console.Console
	interrupted bool
}

// Option configures a Worker.
type Option func(*Worker)

// WithHistory sets the command history. The caller keeps ownership.
func WithHistory(h *history.History) Option {
	return func(w *Worker) {
		w.history = h
	}
}

// WithWorkspace sets where exported files are written and what guest code
// sees through require("fs").
func WithWorkspace(ws workspace.Workspace) Option {
	return func(w *Worker) {
		w.ws = ws
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(w *Worker) {
		w.log = log
	}
}

// New creates a worker posting events to p. The session starts on the first
// message.
func New(cfg Config, p Poster, opts ...Option) (*Worker, error) {
	w := &Worker{
		cfg:  cfg.withDefaults(),
		post: poster{p: p},
		log:  logrus.StandardLogger(),
		ws:   workspace.NewMemory(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.history == nil {
		h, err := history.New(nil, history.MaxLength, w.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create history: %w", err)
		}
		w.history = h
	}
	return w, nil
}

// History returns the command history.
func (w *Worker) History() *history.History {
	return w.history
}

// SessionID returns the ID of the running session, or "" before it starts.
func (w *Worker) SessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sess == nil {
		return ""
	}
	return w.sess.ID
}

// Banner is the greeting shown when a session starts.
func (w *Worker) Banner() string {
	return fmt.Sprintf("gorepl %s (goja) on %s/%s\nThe last non-null result is bound to %s.",
		version.Version, runtime.GOOS, runtime.GOARCH, w.cfg.Session.ResultName)
}

// Initialize starts the session if it is not running yet.
func (w *Worker) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ensureStarted()
}

// Run evaluates code as a whole program in a fresh namespace. On success the
// console is rebound to that namespace so the REPL continues where the
// program left off.
func (w *Worker) Run(p RunPayload) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureStarted(); err != nil {
		return err
	}

	w.post.writeln(RunCode)
	w.post.lock()

	err := w.run(p)
	if err != nil {
		w.post.error(strings.TrimRight(console.FormatError(err), "\n"))
	}

	w.post.prompt(true)
	w.post.unlock()

	if console.IsStackOverflow(err) {
		return w.restart(crashNotice)
	}
	return nil
}

func (w *Worker) run(p RunPayload) error {
	if err := w.export(p.Exports); err != nil {
		return err
	}

	ns, err := w.sess.NewNamespace(RunNamespace)
	if err != nil {
		return err
	}

	runner, err := console.New(ns, console.WithFilename(RunFilename))
	if err != nil {
		_ = w.sess.DropNamespace(ns)
		return err
	}
	w.activate(runner)
	fut := runner.Exec(p.Code)
	w.scheduled()
	v, err := fut.Wait()
	w.activate(nil)
	if err != nil {
		_ = w.sess.DropNamespace(ns)
		return err
	}

	c, err := w.sess.CreateConsole(ns)
	if err != nil {
		_ = w.sess.DropNamespace(ns)
		return err
	}
	if w.runNS != nil {
		if err := w.sess.DropNamespace(w.runNS); err != nil {
			w.log.WithError(err).Warn("Failed to close previous run namespace")
		}
	}
	w.console, w.runNS = c, ns

	if text, ok := w.render(ns, v); ok {
		w.post.writeln(text)
	}
	return nil
}

// ReplInput pushes one line of input to the console. Incomplete input asks
// for more; complete input is evaluated and its result printed.
func (w *Worker) ReplInput(p RunPayload) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureStarted(); err != nil {
		return err
	}

	if !w.cfg.NoEcho {
		w.post.writeln(p.Code)
	}
	if strings.TrimSpace(p.Code) != "" {
		w.history.Push(p.Code)
	}

	if err := w.export(p.Exports); err != nil {
		w.post.error(err.Error())
		w.post.prompt(true)
		return nil
	}

	w.activate(w.console)
	defer w.activate(nil)

	fut := w.console.Push(p.Code)
	w.scheduled()
	switch fut.Syntax() {
	case console.SyntaxError:
		w.post.error(strings.TrimRight(fut.FormattedError(), " \n"))
		w.post.prompt(true)
		return nil
	case console.Incomplete:
		w.post.promptPending()
		return nil
	}

	list, err := w.sess.AwaitResult(fut)

	if err != nil {
		msg := fut.FormattedError()
		if msg == "" {
			msg = err.Error()
		}
		w.post.error(strings.TrimRight(msg, "\n"))
		if console.IsStackOverflow(err) {
			return w.restart(crashNotice)
		}
		w.post.prompt(true)
		return nil
	}

	if v := list.First(); v != nil {
		w.post.writeln(repr.Shorten(repr.Host(v), w.cfg.ReprLimit, 0, TruncatedSeparator))
	}
	w.post.prompt(true)
	return nil
}

// ReplClear drops any partial input and shows a fresh prompt.
func (w *Worker) ReplClear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureStarted(); err != nil {
		return err
	}

	defer func() {
		w.post.error("\nKeyboardInterrupt")
		w.post.prompt(true)
	}()

	w.sess.ClearConsole(w.console)
	_, err := w.sess.AwaitResult(w.console.Push(""))
	return err
}

// Interrupt aborts the evaluation in progress, including input scheduled but
// not yet started. It does not wait for the message being handled, so it is
// safe to call while Run or ReplInput block.
func (w *Worker) Interrupt() {
	w.intMu.Lock()
	defer w.intMu.Unlock()
	if w.active == nil {
		return
	}
	w.interrupted = true
	w.active.Interrupt()
}

func (w *Worker) activate(c *console.Console) {
	w.intMu.Lock()
	defer w.intMu.Unlock()
	w.active, w.interrupted = c, false
}

// scheduled replays an Interrupt that landed before the console had a
// future to reject.
func (w *Worker) scheduled() {
	w.intMu.Lock()
	defer w.intMu.Unlock()
	if w.interrupted && w.active != nil {
		w.active.Interrupt()
	}
}

// interruptible reports whether Interrupt currently has a target.
func (w *Worker) interruptible() bool {
	w.intMu.Lock()
	defer w.intMu.Unlock()
	return w.active != nil
}

// Restart discards the session and starts a new one.
func (w *Worker) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.restart("")
}

// Close stops the session. The history is left to its owner.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop()
}

func (w *Worker) ensureStarted() error {
	if w.sess != nil {
		return nil
	}
	return w.start()
}

func (w *Worker) start() error {
	sess, err := session.New(w.cfg.Session,
		session.WithLogger(w.log),
		session.WithNamespaceOptions(
			namespace.WithOutput(lineWriter(w.post.writeln), lineWriter(w.post.error)),
			namespace.WithModule(workspace.ModuleName, workspace.Module(w.ws, w.cfg.MaxFileSize)),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	c, err := sess.CreateConsole(nil)
	if err != nil {
		_ = sess.Close()
		return fmt.Errorf("failed to create console: %w", err)
	}

	w.sess, w.console, w.runNS = sess, c, nil
	w.log.WithField("session", sess.ID).Info("Interpreter ready")

	if !w.cfg.NoBanner {
		w.post.writeln(w.Banner())
	}
	w.post.prompt(false)
	w.post.unlock()
	return nil
}

func (w *Worker) stop() error {
	if w.sess == nil {
		return nil
	}
	err := w.sess.Close()
	w.sess, w.console, w.runNS = nil, nil, nil
	return err
}

func (w *Worker) restart(notice string) error {
	if notice != "" {
		w.post.system(notice)
	}
	w.log.Warn("Restarting interpreter")
	if err := w.stop(); err != nil {
		w.log.WithError(err).Warn("Failed to stop session cleanly")
	}
	return w.start()
}

// export syncs the workspace to files. A nil list leaves the workspace
// untouched; an empty one removes every file.
func (w *Worker) export(files []workspace.File) error {
	if files == nil {
		return nil
	}
	return workspace.Sync(w.ws, files)
}

// render formats a guest value for output. Null and undefined print nothing.
func (w *Worker) render(ns *namespace.Namespace, v goja.Value) (string, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	var text string
	if err := ns.Do(func(vm *goja.Runtime) {
		text = repr.Repr(vm, v)
	}); err != nil {
		return "", false
	}
	return repr.Shorten(text, w.cfg.ReprLimit, 0, TruncatedSeparator), true
}
