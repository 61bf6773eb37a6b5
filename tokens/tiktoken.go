package tokens

import (
	"fmt"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Encoding names understood by NewTiktokenCounter.
const (
	EncodingCL100kBase = "cl100k_base"
	EncodingO200kBase  = "o200k_base"
)

// TiktokenCounter counts tokens with a BPE encoding. Anthropic and Google
// models have no public tokenizer; cl100k_base is a close approximation.
//
// tiktoken-go loads rank files lazily on first use of an encoding, so
// construction may need network access unless a BPE loader was installed
// with tiktoken.SetBpeLoader.
type TiktokenCounter struct {
	name     string
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the named encoding.
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TiktokenCounter{name: encodingName, encoding: enc}, nil
}

// NewTiktokenCounterForModel picks the encoding tiktoken associates with the
// model and falls back to cl100k_base for unknown models.
func NewTiktokenCounterForModel(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return NewTiktokenCounter(EncodingCL100kBase)
	}
	return &TiktokenCounter{name: model, encoding: enc}, nil
}

// Name returns the encoding or model name the counter was built for.
func (c *TiktokenCounter) Name() string {
	return c.name
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// FitsInLimit returns true if the text fits within the token limit.
func (c *TiktokenCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Estimate implements Estimator.
func (c *TiktokenCounter) Estimate(text string) (int, error) {
	return c.Count(text), nil
}

// TruncateTokens keeps the first maxTokens tokens of text. Trailing bytes
// of a character split across tokens are dropped so the result is valid UTF-8.
func (c *TiktokenCounter) TruncateTokens(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return "", nil
	}
	ids := c.encoding.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text, nil
	}

	// Re-encoding a decoded prefix can merge differently at the cut, so
	// shrink until the prefix counts within the limit.
	for n := maxTokens; n > 0; n-- {
		prefix := trimPartialRune(c.encoding.Decode(ids[:n]))
		if c.Count(prefix) <= maxTokens {
			return prefix, nil
		}
	}
	return "", nil
}

func trimPartialRune(s string) string {
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
