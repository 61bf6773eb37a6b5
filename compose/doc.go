// Package compose assembles the prompt of one conversation turn and renders
// it within the model's token budget.
//
// A turn is always laid out in the same order:
//
//  1. the required identity prompt
//  2. the model-specific instructions from the model.Registry
//  3. environment and workspace context
//  4. the conversation history, summarized when it outgrows its share
//  5. attachments and the current query (required)
//  6. recent tool results, each cut to a share of the remaining budget
//
// Cache boundaries follow the instructions and the history.
//
// Basic usage:
//
//	cfg := compose.FromEnv().WithModel("claude-sonnet-4-20250514")
//	c, err := compose.NewComposer(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	res, err := c.Compose(ctx, compose.Request{
//	    Query:   "Why does the build fail?",
//	    History: turns,
//	})
//	if errors.Is(err, prompt.ErrBudgetExceeded) {
//	    // raise the budget or shorten the query
//	}
//	send(res.Render.Messages)
//
// Configuration is read from the environment (PROMPTKIT_*) or decoded from
// YAML, TOML or JSON with ParseConfig.
package compose
