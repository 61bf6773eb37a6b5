// Package tokens provides token counting and context-window budgets for
// prompt rendering.
//
// # Estimators
//
// Rendering depends on the Estimator interface, a deterministic and
// monotonic count that may fail:
//
//	est := tokens.NewEstimatingCounter()         // ~4 runes per token
//	n, err := est.Estimate("Hello, world!")
//
// For exact counts use a BPE encoding:
//
//	tk, err := tokens.NewTiktokenCounter(tokens.EncodingCL100kBase)
//	short, err := tk.TruncateTokens(text, 100)  // cut at a token boundary
//
// Wrap any estimator with an LRU cache when the same text is counted on
// every turn:
//
//	cached := tokens.NewCachingEstimator(tk, tokens.DefaultCacheSize)
//
// The infallible Counter interface is kept for simple checks:
//
//	tokens.NewEstimatingCounter().FitsInLimit(text, 1000)
//
// # Budget
//
// Budget splits a model's context window into prompt tokens and a response
// reserve:
//
//	b := tokens.ForModel("claude-sonnet-4", tokens.DefaultReservePercent)
//	b.Prompt                 // tokens a rendered prompt may use
//	b.Share(used, 50)        // half of what is left after used
//
// See ModelLimits for known context windows by model family prefix.
package tokens
