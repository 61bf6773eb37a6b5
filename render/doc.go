// Package render turns a prompt tree into a budgeted list of role-tagged
// messages.
//
// Rendering runs in four steps:
//
//  1. Resolve: Async producers run concurrently across sibling subtrees.
//     Cancelling the context stops them and the render fails with
//     prompt.ErrCancelled.
//  2. Measure: each leaf is counted once with the Estimator; every node gets
//     its full size and its required minimum.
//  3. Allocate: siblings are granted tokens by priority, highest first,
//     ties in document order. A sibling that does not fit is cut at a token
//     boundary, or dropped if it is an AtomicGroup or a Weighted node with
//     zero flex. Each sibling is rendered as it is granted, and what it
//     leaves unused stays available to the siblings after it. Tokens left
//     over at the end are shared among flexible siblings in proportion to
//     FlexGrow. MaxTokens caps a subtree at every stage; a cap smaller than
//     the required content under it is a prompt.ValidationError.
//  4. Serialize: adjacent text of one role merges into one message; cache
//     boundaries and references are recorded.
//
// Usage:
//
//	r := render.New(estimator, render.WithLogger(logger))
//	res, err := r.Render(ctx, root, 8000)
//	if errors.Is(err, prompt.ErrBudgetExceeded) {
//		// raise the budget or mark fewer nodes required
//	}
//	for _, m := range res.Messages {
//		fmt.Println(m.Role, m.Content)
//	}
//
// The total of a successful render never exceeds the budget. If required
// content alone does not fit, Render returns a *prompt.BudgetExceededError.
package render
