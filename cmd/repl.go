package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/itsmostafa/gorepl/internal/output"
	"github.com/itsmostafa/gorepl/internal/worker"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive console",
	Long: `Start an interactive JavaScript console. Ctrl-C discards the current input or
interrupts a running evaluation; Ctrl-D exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd, nil)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// runREPL reads input until EOF, first running script when it is not nil.
// A terminal gets a line editor; anything else is read line by line.
func runREPL(cmd *cobra.Command, script *worker.RunPayload) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runBasicREPL(cmd, script)
	}
	return runLineEditor(cmd, script)
}

// runBasicREPL handles non-TTY input (piped input)
func runBasicREPL(cmd *cobra.Command, script *worker.RunPayload) error {
	terminal := &output.Terminal{
		Out:   cmd.OutOrStdout(),
		Err:   cmd.ErrOrStderr(),
		Quiet: true,
	}
	workerCfg := cfg.Worker()
	workerCfg.NoEcho = true
	workerCfg.NoBanner = true

	rt, err := newRuntime(terminal, workerCfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := start(rt, script); err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if err := rt.worker.ReplInput(worker.RunPayload{Code: scanner.Text()}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// runLineEditor handles TTY input with editing, history and Ctrl-C support
func runLineEditor(cmd *cobra.Command, script *worker.RunPayload) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 prompt(worker.PS1),
		HistoryLimit:           cfg.History.Limit,
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer rl.Close()

	terminal := &output.Terminal{
		Out: rl.Stdout(),
		Err: rl.Stderr(),
		Prompt: func(p string) {
			rl.SetPrompt(prompt(p))
		},
	}
	workerCfg := cfg.Worker()
	workerCfg.NoEcho = true

	rt, err := newRuntime(terminal, workerCfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, entry := range rt.history.Entries() {
		if err := rl.SaveHistory(entry); err != nil {
			rt.log.WithError(err).Debug("Failed to seed line editor history")
		}
	}

	// Ctrl-C while an evaluation runs arrives as a signal, since the line
	// editor only owns the terminal while reading.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupts:
				rt.worker.Interrupt()
			}
		}
	}()

	if err := rt.worker.Initialize(); err != nil {
		return err
	}
	rt.header(rl.Stdout())
	if err := start(rt, script); err != nil {
		return err
	}

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if err := rt.worker.ReplClear(); err != nil {
				return err
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if strings.TrimSpace(line) != "" {
			_ = rl.SaveHistory(line)
		}
		if err := rt.worker.ReplInput(worker.RunPayload{Code: line}); err != nil {
			return err
		}
	}
}

func start(rt *replRuntime, script *worker.RunPayload) error {
	if err := rt.worker.Initialize(); err != nil {
		return err
	}
	if script == nil {
		return nil
	}
	return rt.worker.Run(*script)
}

// prompt strips colour from p when styled output is off.
func prompt(p string) string {
	if cfg.REPL.Color {
		return p
	}
	switch p {
	case worker.PS1:
		return ">>> "
	case worker.PS2:
		return "... "
	}
	return p
}
