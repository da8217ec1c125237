package cmd

import (
	"fmt"
	"os"

	"github.com/itsmostafa/gorepl/internal/output"
	"github.com/itsmostafa/gorepl/internal/worker"
	"github.com/spf13/cobra"
)

var interactive bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a script",
	Long: `Run a JavaScript file as a whole program in a fresh namespace and print its
completion value. With --interactive the console continues in the script's
namespace afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		script := &worker.RunPayload{Code: string(code)}

		if interactive {
			return runREPL(cmd, script)
		}

		terminal := &output.Terminal{
			Out:   cmd.OutOrStdout(),
			Err:   cmd.ErrOrStderr(),
			Quiet: true,
		}
		workerCfg := cfg.Worker()
		workerCfg.NoBanner = true

		rt, err := newRuntime(terminal, workerCfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		return start(rt, script)
	},
}

func init() {
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Continue in an interactive console after the script")

	rootCmd.AddCommand(runCmd)
}
