// Package promptkit renders LLM prompts that fit a token budget.
//
// promptkit is a set of packages meant to be imported à la carte:
//
//   - prompt: the prompt node tree (messages, weighted and atomic content,
//     cache boundaries, deferred producers, references) and its errors
//   - render: the budget renderer and the serializer producing messages
//   - tokens: token estimators (heuristic, tiktoken, cached) and
//     context-window budgets
//   - truncate: token-aware text truncation strategies
//   - template: instruction templates with {{variable}} syntax
//   - model: model identities and the instruction template registry
//   - history: conversation turns and the history summarizer
//   - compose: assembles and renders one conversation turn
//
// # Quick Start
//
// Rendering a tree:
//
//	import "github.com/randalmurphal/promptkit/render"
//	tree := prompt.Group(
//	    prompt.System(prompt.Required(prompt.Text("You are a reviewer.\n"))),
//	    prompt.User(
//	        prompt.Prioritized(5, prompt.Text(diff)),
//	        prompt.Required(prompt.Text("Review the diff.")),
//	    ),
//	)
//	res, err := render.New(tokens.NewEstimatingCounter()).Render(ctx, tree, 4000)
//
// Composing a turn:
//
//	import "github.com/randalmurphal/promptkit/compose"
//	c, _ := compose.NewComposer(compose.FromEnv(), nil)
//	res, err := c.Compose(ctx, compose.Request{Query: "Why does the build fail?"})
//
// Command promptctl renders a turn described in a session file.
package promptkit
