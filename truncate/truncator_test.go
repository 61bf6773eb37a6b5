package truncate

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/randalmurphal/promptkit/tokens"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		strategy       Strategy
		expectedSuffix string
	}{
		{name: "FromEnd strategy", strategy: FromEnd, expectedSuffix: DefaultEndSuffix},
		{name: "FromMiddle strategy", strategy: FromMiddle, expectedSuffix: DefaultMiddleSuffix},
		{name: "FromStart strategy", strategy: FromStart, expectedSuffix: DefaultStartSuffix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.strategy)
			if tr.Strategy() != tt.strategy {
				t.Errorf("Strategy() = %v, expected %v", tr.Strategy(), tt.strategy)
			}
			if tr.Suffix() != tt.expectedSuffix {
				t.Errorf("Suffix() = %q, expected %q", tr.Suffix(), tt.expectedSuffix)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{FromEnd, FromMiddle, FromStart} {
		got, err := ParseStrategy(s.String())
		if err != nil {
			t.Fatalf("ParseStrategy(%q) error: %v", s.String(), err)
		}
		if got != s {
			t.Errorf("ParseStrategy(%q) = %v, expected %v", s.String(), got, s)
		}
	}

	if _, err := ParseStrategy("sideways"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestTruncator_NoTruncationNeeded(t *testing.T) {
	text := "short text"
	result, truncated, err := NewFromEnd().Truncate(text, 100)
	if err != nil {
		t.Fatal(err)
	}
	if result != text || truncated {
		t.Errorf("Truncate() = (%q, %v), expected (%q, false)", result, truncated, text)
	}
}

func TestTruncator_ResultFitsLimit(t *testing.T) {
	counter := tokens.NewEstimatingCounter()
	text := strings.Repeat("abcdefg ", 40)

	for _, strategy := range []Strategy{FromEnd, FromMiddle, FromStart} {
		for limit := 1; limit <= 30; limit++ {
			result, truncated, err := New(strategy).Truncate(text, limit)
			if err != nil {
				t.Fatal(err)
			}
			if !truncated {
				t.Fatalf("%v/%d: expected truncation", strategy, limit)
			}
			if n := counter.Count(result); n > limit {
				t.Errorf("%v/%d: result has %d tokens", strategy, limit, n)
			}
		}
	}
}

func TestTruncator_TruncateEnd(t *testing.T) {
	text := strings.Repeat("a", 100)
	result, truncated, err := NewFromEnd().Truncate(text, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !truncated {
		t.Error("expected truncation")
	}
	if !strings.HasSuffix(result, "...") {
		t.Errorf("expected suffix ..., got: %q", result)
	}
}

func TestTruncator_TruncateMiddle(t *testing.T) {
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	result, _, err := NewFromMiddle().Truncate(text, 12)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "[content truncated]") {
		t.Errorf("expected middle suffix, got: %q", result)
	}
	if !strings.HasPrefix(result, "a") || !strings.HasSuffix(result, "b") {
		t.Errorf("expected to keep both ends, got: %q", result)
	}
}

func TestTruncator_TruncateStart(t *testing.T) {
	text := strings.Repeat("a", 50) + "tail"
	result, _, err := NewFromStart().Truncate(text, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(result, "...") || !strings.HasSuffix(result, "tail") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestTruncator_EmptySuffixIsPlainCut(t *testing.T) {
	text := strings.Repeat("x", 200)
	result, _, err := NewFromEnd().WithSuffix("").Truncate(text, 10)
	if err != nil {
		t.Fatal(err)
	}
	// 40 runes are 10 tokens; 41 round up to 11.
	if len(result) != 40 {
		t.Errorf("expected 40 runes, got %d", len(result))
	}
}

func TestTruncator_ZeroLimit(t *testing.T) {
	result, truncated, err := NewFromEnd().Truncate(strings.Repeat("a", 100), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !truncated || result != "" {
		t.Errorf("Truncate(_, 0) = (%q, %v), expected (\"\", true)", result, truncated)
	}
}

func TestTruncator_NeverSplitsRunes(t *testing.T) {
	text := strings.Repeat("日本語のテキスト", 20)
	for _, strategy := range []Strategy{FromEnd, FromMiddle, FromStart} {
		result, _, err := New(strategy).WithSuffix("").Truncate(text, 7)
		if err != nil {
			t.Fatal(err)
		}
		if !utf8.ValidString(result) {
			t.Errorf("%v produced invalid UTF-8: %q", strategy, result)
		}
	}
}

func TestTruncator_UsesTokenTruncator(t *testing.T) {
	est := wordEstimator{}
	result, truncated, err := NewFromEnd().WithEstimator(est).WithSuffix("").Truncate("one two three four five", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !truncated || result != "one two" {
		t.Errorf("Truncate() = (%q, %v), expected (\"one two\", true)", result, truncated)
	}
}

func TestTruncator_EstimatorError(t *testing.T) {
	boom := errors.New("tokenizer offline")
	est := tokens.EstimatorFunc(func(string) (int, error) { return 0, boom })

	_, _, err := NewFromEnd().WithEstimator(est).Truncate("text", 1)
	if !errors.Is(err, boom) {
		t.Errorf("expected estimator error, got %v", err)
	}
}

func TestTruncator_JoinedSuffixCostsMore(t *testing.T) {
	// Text ending in the suffix costs 20 tokens more than its parts, so the
	// cut has to shrink well below the limit.
	calls := 0
	est := tokens.EstimatorFunc(func(text string) (int, error) {
		calls++
		n := utf8.RuneCountInString(text)
		if len(text) > 1 && strings.HasSuffix(text, "!") {
			n += 20
		}
		return n, nil
	})

	result, truncated, err := NewFromEnd().WithEstimator(est).WithSuffix("!").Truncate(strings.Repeat("a", 1000), 100)
	if err != nil {
		t.Fatal(err)
	}
	if !truncated {
		t.Fatal("expected truncation")
	}
	if expected := strings.Repeat("a", 79) + "!"; result != expected {
		t.Errorf("Truncate() kept %d runes, expected %d", len(result), len(expected))
	}
	if calls > 150 {
		t.Errorf("Truncate() made %d estimator calls", calls)
	}
}

func TestToTokens(t *testing.T) {
	text := strings.Repeat("x", 100)
	result := ToTokens(text, 10)

	if len(result) >= len(text) {
		t.Error("result should be shorter than original")
	}
	if !strings.HasSuffix(result, "...") {
		t.Errorf("expected suffix ..., got: %q", result)
	}
}

// wordEstimator counts words and cuts at word boundaries.
type wordEstimator struct{}

func (wordEstimator) Estimate(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (wordEstimator) TruncateTokens(text string, maxTokens int) (string, error) {
	words := strings.Fields(text)
	if len(words) > maxTokens {
		words = words[:maxTokens]
	}
	return strings.Join(words, " "), nil
}

func BenchmarkTruncator_End(b *testing.B) {
	tr := NewFromEnd()
	text := strings.Repeat("Hello World ", 1000)

	b.ResetTimer()
	for range b.N {
		_, _, _ = tr.Truncate(text, 100)
	}
}
