package tokens

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEstimator struct {
	calls int
	err   error
}

func (c *countingEstimator) Estimate(text string) (int, error) {
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return len(text), nil
}

func TestCachingEstimator_Memoizes(t *testing.T) {
	inner := &countingEstimator{}
	c := NewCachingEstimator(inner, 8)

	for range 3 {
		n, err := c.Estimate("hello")
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, CacheStats{Hits: 2, Misses: 1}, c.Stats())
	assert.Equal(t, 1, c.Len())
}

func TestCachingEstimator_DoesNotCacheErrors(t *testing.T) {
	inner := &countingEstimator{err: errors.New("offline")}
	c := NewCachingEstimator(inner, 8)

	_, err := c.Estimate("hello")
	require.Error(t, err)
	_, err = c.Estimate("hello")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, c.Len())
}

func TestCachingEstimator_Evicts(t *testing.T) {
	inner := &countingEstimator{}
	c := NewCachingEstimator(inner, 2)

	for _, s := range []string{"a", "bb", "ccc"} {
		_, err := c.Estimate(s)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	_, err := c.Estimate("a")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}

func TestCachingEstimator_TruncationCapability(t *testing.T) {
	c := NewCachingEstimator(NewEstimatingCounter(), 0)

	_, ok := AsTruncator(c)
	assert.False(t, ok)

	_, err := c.TruncateTokens("text", 1)
	assert.ErrorIs(t, err, ErrNoTokenTruncation)
}
