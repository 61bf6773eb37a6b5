// Package history holds conversation turns and decides when older turns are
// collapsed into a summary.
//
// A Summarizer walks the turns from the most recent backward and keeps them
// verbatim while their running estimate, plus a reserve for the summary,
// stays under the threshold. Everything older is handed to a Condenser and
// replaced by one synthetic turn:
//
//	s := history.NewSummarizer(est,
//	    history.WithCondenser(myModelCondenser),
//	    history.WithCache(history.NewMemoryCache(0)),
//	)
//	res, err := s.MaybeSummarize(ctx, turns, 4000)
//	turns = res.Turns()
//
// Synthetic turns are never summarized again, so feeding res.Turns() back
// in is stable. The most recent turn is always kept; when it alone exceeds
// the threshold the result sets Overflow.
//
// Without a condenser, TruncatingCondenser lists each collapsed turn on one
// line, cut to the reserve.
package history
