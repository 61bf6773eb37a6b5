// Command promptctl renders prompt turns described in session files.
//
//	promptctl render --session turn.yaml --config promptkit.toml --budget 8000
//	promptctl resolve --model claude-sonnet-4-20250514 --tools bash,read_file
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
	config  string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "promptctl",
		Short: "Render budgeted LLM prompts",
		Long: `promptctl assembles the prompt of one conversation turn, fits it into a
token budget and prints the resulting messages as JSON.

Configuration is read from --config (YAML, TOML or JSON) and then from
PROMPTKIT_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log allocation decisions")
	root.PersistentFlags().StringVarP(&a.config, "config", "c", "", "config file (.yaml, .toml or .json)")

	root.AddCommand(newRenderCmd(a), newResolveCmd(a))
	return root
}

func (a *app) logger() *slog.Logger {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
}
