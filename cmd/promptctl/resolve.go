package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptkit/model"
	"github.com/randalmurphal/promptkit/prompt"
	"github.com/randalmurphal/promptkit/render"
)

type resolveFlags struct {
	family  string
	version string
	model   string
	tools   []string
}

func newResolveCmd(a *app) *cobra.Command {
	f := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the instruction template a model resolves to",
		Long: `Resolve prints the instruction template chosen for a model, how it
matched (predicate, prefix or default) and the instructions it renders.

Give either --model, or --family and --version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runResolve(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.family, "family", "", "model family (e.g. claude)")
	cmd.Flags().StringVar(&f.version, "version", "", "model version (e.g. sonnet-4)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "full model name, split into family and version")
	cmd.Flags().StringSliceVar(&f.tools, "tools", nil, "tool names offered to the model")
	cmd.MarkFlagsMutuallyExclusive("model", "family")
	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, f *resolveFlags) error {
	logger := a.logger()
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	id := model.Identity{Family: f.family, Version: f.version}
	if f.model != "" {
		id = model.ParseIdentity(f.model)
	}
	if id.Family == "" {
		id = model.ParseIdentity(cfg.Model)
	}

	registry := model.NewRegistry(model.WithLogger(logger))
	if err := model.RegisterDefaults(registry); err != nil {
		return err
	}
	res := registry.Resolve(cmd.Context(), id)

	node, err := res.Builder.Build(model.InstructionContext{Identity: id, Tools: f.tools, Vars: cfg.Vars})
	if err != nil {
		return fmt.Errorf("build instructions %s: %w", res.Name, err)
	}
	est, err := cfg.NewEstimator()
	if err != nil {
		return err
	}
	out, err := render.New(est, render.WithLogger(logger)).Render(cmd.Context(), prompt.System(node), math.MaxInt32)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "model:    %s\n", id)
	fmt.Fprintf(a.out, "template: %s (%s)\n", res.Name, res.Kind)
	fmt.Fprintf(a.out, "tokens:   %d\n\n", out.TotalTokens)
	for _, m := range out.Messages {
		fmt.Fprintln(a.out, m.Content)
	}
	return nil
}
