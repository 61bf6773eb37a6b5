package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/promptkit/compose"
	"github.com/randalmurphal/promptkit/history"
	"github.com/randalmurphal/promptkit/model"
	"github.com/randalmurphal/promptkit/render"
)

type renderFlags struct {
	session  string
	budget   int
	encoding string
	model    string
}

// renderOutput is what `promptctl render` prints.
type renderOutput struct {
	Template   string          `json:"template"`
	Match      model.MatchKind `json:"match"`
	Budget     int             `json:"budget"`
	ToolTokens int             `json:"tool_tokens"`
	Summary    *history.Turn   `json:"summary,omitempty"`
	Overflow   bool            `json:"overflow,omitempty"`
	Result     *render.Result  `json:"result"`
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the turn described in a session file",
		Long: `Render composes the turn in --session and prints the messages, cache
boundaries and references as JSON.

The session file (YAML or JSON) holds the fields of a compose request:

  model: claude-sonnet-4-20250514
  budget: 8000
  query: Why does the build fail?
  environment:
    - name: os
      text: linux
  history:
    - id: "1"
      user_text: run the tests
      assistant_text: Two tests fail.
  tool_results:
    - tool_name: read_file
      input: {path: main.go}
      result: package main`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRender(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.session, "session", "s", "", "session file (.yaml or .json)")
	cmd.Flags().IntVarP(&f.budget, "budget", "b", 0, "prompt budget in tokens (overrides the session)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "token estimator: heuristic, model, cl100k_base or o200k_base")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model name (overrides the session)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, f *renderFlags) error {
	logger := a.logger()
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	s, err := loadSession(f.session)
	if err != nil {
		return err
	}

	if f.model != "" {
		s.Model = f.model
	}
	if s.Model != "" {
		cfg = cfg.WithModel(s.Model)
		if s.Identity.Family == "" {
			s.Identity = model.ParseIdentity(s.Model)
		}
	}
	if f.encoding != "" {
		cfg = cfg.WithEncoding(f.encoding)
	}
	if f.budget > 0 {
		s.Budget = f.budget
	}

	c, err := compose.NewComposer(cfg, nil, compose.WithLogger(logger))
	if err != nil {
		return err
	}
	res, err := c.Compose(cmd.Context(), s.Request)
	if err != nil {
		return err
	}

	logger.Info("rendered",
		slog.Int("messages", len(res.Render.Messages)),
		slog.String("tokens", humanize.Comma(int64(res.Render.TotalTokens))),
		slog.String("budget", humanize.Comma(int64(res.Budget))),
		slog.String("template", res.Template))

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(renderOutput{
		Template:   res.Template,
		Match:      res.Match,
		Budget:     res.Budget,
		ToolTokens: res.ToolTokens,
		Summary:    res.History.Summary,
		Overflow:   res.History.Overflow,
		Result:     res.Render,
	}); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
