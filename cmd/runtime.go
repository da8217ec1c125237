package cmd

import (
	"io"
	"os"

	"github.com/itsmostafa/gorepl/internal/history"
	"github.com/itsmostafa/gorepl/internal/logging"
	"github.com/itsmostafa/gorepl/internal/output"
	"github.com/itsmostafa/gorepl/internal/worker"
	"github.com/itsmostafa/gorepl/internal/workspace"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// replRuntime is everything one command invocation needs to drive a worker.
type replRuntime struct {
	worker  *worker.Worker
	history *history.History
	log     logrus.FieldLogger
}

// newRuntime wires the logger, history store, workspace and worker from cfg.
// Worker events are rendered by terminal.
func newRuntime(terminal *output.Terminal, workerCfg worker.Config) (*replRuntime, error) {
	log, err := logging.New(os.Stderr, cfg.Logger)
	if err != nil {
		return nil, err
	}

	var store history.Store
	if cfg.History.Path != "" {
		sqlite, err := history.NewSQLite(cfg.History.Path)
		if err != nil {
			log.WithError(err).WithField("path", cfg.History.Path).Warn("Failed to open history, keeping it in memory")
		} else {
			store = sqlite
		}
	}
	hist, err := history.New(store, cfg.History.Limit, log)
	if err != nil {
		return nil, err
	}

	var ws workspace.Workspace = workspace.NewMemory()
	if cfg.Workspace.Dir != "" {
		dir, err := workspace.NewDir(cfg.Workspace.Dir)
		if err != nil {
			_ = hist.Close()
			return nil, err
		}
		ws = dir
	}

	terminal.Color = cfg.REPL.Color
	w, err := worker.New(workerCfg, terminal,
		worker.WithHistory(hist),
		worker.WithWorkspace(ws),
		worker.WithLogger(log),
	)
	if err != nil {
		_ = hist.Close()
		return nil, err
	}

	return &replRuntime{
		worker:  w,
		history: hist,
		log:     log,
	}, nil
}

func (r *replRuntime) header(w io.Writer) {
	output.FormatHeader(w, r.worker.SessionID(), cfg.History.Path, cfg.Workspace.Dir, int64(cfg.Workspace.MaxFileSize))
}

// Close stops the worker and releases the history store.
func (r *replRuntime) Close() error {
	return multierr.Combine(r.worker.Close(), r.history.Close())
}
