package tokens

import "errors"

// ErrNoTokenTruncation is returned by TruncateTokens on a wrapper whose
// underlying estimator cannot cut text at token boundaries.
var ErrNoTokenTruncation = errors.New("estimator does not support token truncation")

// AsTruncator returns e as a TokenTruncator if it can really cut at token
// boundaries. Wrappers that only forward the capability report it through a
// CanTruncateTokens method.
func AsTruncator(e Estimator) (TokenTruncator, bool) {
	t, ok := e.(TokenTruncator)
	if !ok {
		return nil, false
	}
	if c, ok := e.(interface{ CanTruncateTokens() bool }); ok && !c.CanTruncateTokens() {
		return nil, false
	}
	return t, true
}
