// Package prompt defines the declarative node tree a prompt is built from.
//
// A tree is an immutable value composed of a closed set of node kinds:
//
//	Leaf           text
//	Container      grouping without a role
//	RoleMessage    a message boundary (system, user, assistant)
//	Weighted       priority, flex weight and token cap for a subtree
//	AtomicGroup    a subtree rendered whole or not at all
//	CacheBoundary  a zero-token marker reported in the render result
//	Async          a subtree produced at render time
//	Reference      an attachment or citation carried by its content
//
// Trees are built with plain functions:
//
//	root := prompt.Group(
//		prompt.System(prompt.Required(prompt.Text(identity))),
//		prompt.Boundary(),
//		prompt.User(
//			prompt.Prioritized(5, prompt.Text(workspace)).Named("workspace"),
//			prompt.Text(query),
//		),
//	)
//
// Content that is not under a Weighted node inherits the priority of its
// nearest Weighted ancestor; content with no Weighted ancestor is required.
// Text must appear inside a RoleMessage, and RoleMessages may not nest.
// Validate reports violations as a *ValidationError.
//
// # Errors
//
// Render outcomes are classified by the sentinels ErrCancelled,
// ErrBudgetExceeded, ErrInvalidTree, ErrEstimator and ErrProducer. The typed
// errors BudgetExceededError, ValidationError and EstimatorError carry
// details and unwrap to their sentinel:
//
//	var be *prompt.BudgetExceededError
//	if errors.As(err, &be) {
//		log.Printf("raise budget to %d", be.Required)
//	}
package prompt
