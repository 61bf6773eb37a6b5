package truncate

import (
	"strings"

	"github.com/randalmurphal/promptkit/tokens"
)

// budgetAfterSuffix returns the tokens left for content once the suffix is
// accounted for.
func (t *Truncator) budgetAfterSuffix(maxTokens int) (int, error) {
	if t.suffix == "" {
		return maxTokens, nil
	}
	n, err := t.estimator.Estimate(t.suffix)
	if err != nil {
		return 0, err
	}
	return maxTokens - n, nil
}

// truncateEnd removes content from the end until it fits.
func (t *Truncator) truncateEnd(text string, maxTokens int) (string, error) {
	target, err := t.budgetAfterSuffix(maxTokens)
	if err != nil {
		return "", err
	}
	if target <= 0 {
		return t.suffixWithin(maxTokens)
	}

	if tt, ok := tokens.AsTruncator(t.estimator); ok {
		prefix, err := tt.TruncateTokens(text, target)
		if err != nil {
			return "", err
		}
		if prefix == "" {
			return t.suffixWithin(maxTokens)
		}
		return prefix + t.suffix, nil
	}

	runes := []rune(text)
	keep, err := t.longestPrefix(runes, target)
	if err != nil {
		return "", err
	}
	if keep == 0 {
		return t.suffixWithin(maxTokens)
	}
	return string(runes[:keep]) + t.suffix, nil
}

// truncateMiddle removes content from the middle, keeping start and end.
func (t *Truncator) truncateMiddle(text string, maxTokens int) (string, error) {
	target, err := t.budgetAfterSuffix(maxTokens)
	if err != nil {
		return "", err
	}
	if target <= 0 {
		return t.suffixWithin(maxTokens)
	}

	runes := []rune(text)
	head, err := t.longestPrefix(runes, target/2)
	if err != nil {
		return "", err
	}
	tail, err := t.shortestSuffixStart(runes[head:], target-target/2)
	if err != nil {
		return "", err
	}
	tail += head

	var sb strings.Builder
	sb.WriteString(string(runes[:head]))
	sb.WriteString(t.suffix)
	sb.WriteString(string(runes[tail:]))
	return sb.String(), nil
}

// truncateStart removes content from the start.
func (t *Truncator) truncateStart(text string, maxTokens int) (string, error) {
	target, err := t.budgetAfterSuffix(maxTokens)
	if err != nil {
		return "", err
	}
	if target <= 0 {
		return t.suffixWithin(maxTokens)
	}

	runes := []rune(text)
	start, err := t.shortestSuffixStart(runes, target)
	if err != nil {
		return "", err
	}
	if start >= len(runes) {
		return t.suffixWithin(maxTokens)
	}
	return t.suffix + string(runes[start:]), nil
}

// suffixWithin returns the suffix alone when it fits maxTokens, otherwise
// the empty string.
func (t *Truncator) suffixWithin(maxTokens int) (string, error) {
	if t.suffix == "" {
		return "", nil
	}
	ok, err := t.fits(t.suffix, maxTokens)
	if err != nil || !ok {
		return "", err
	}
	return t.suffix, nil
}

// longestPrefix finds how many runes from the start fit in maxTokens.
func (t *Truncator) longestPrefix(runes []rune, maxTokens int) (int, error) {
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		ok, err := t.fits(string(runes[:mid]), maxTokens)
		if err != nil {
			return 0, err
		}
		if ok {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low, nil
}

// shortestSuffixStart finds the smallest index whose tail fits in maxTokens.
func (t *Truncator) shortestSuffixStart(runes []rune, maxTokens int) (int, error) {
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high) / 2
		ok, err := t.fits(string(runes[mid:]), maxTokens)
		if err != nil {
			return 0, err
		}
		if ok {
			high = mid
		} else {
			low = mid + 1
		}
	}
	return low, nil
}
