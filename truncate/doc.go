// Package truncate provides token-aware text truncation.
//
// Three strategies are available:
//
//   - FromEnd: remove content from the end (default)
//   - FromMiddle: remove content from the middle, keeping start and end
//   - FromStart: remove content from the start
//
// Truncation measures candidates with a tokens.Estimator and always returns
// text whose estimate is within the limit, suffix included:
//
//	tr := truncate.NewFromMiddle().WithEstimator(est)
//	out, truncated, err := tr.Truncate(toolOutput, 2000)
//
// Cuts never split a rune. When the estimator implements
// tokens.TokenTruncator, end truncation cuts at an exact token boundary
// instead of searching over runes.
//
// ToTokens is a shorthand for end truncation with the default estimator.
package truncate
