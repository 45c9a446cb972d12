package xdlock

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

func TestNewLeaseValue(t *testing.T) {
	v1, err := newLeaseValue()
	require.NoError(t, err)
	assert.Len(t, v1, leaseValueBytes*2)
	assert.True(t, hexRe.MatchString(v1))

	v2, err := newLeaseValue()
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2, "lease values must be unpredictable and distinct across calls")
}

func TestNewHandleID(t *testing.T) {
	now := time.Now()
	id, err := newHandleID(now)
	require.NoError(t, err)

	re := regexp.MustCompile(`^\d+-[0-9a-f]{12}$`)
	assert.Regexp(t, re, id)

	id2, err := newHandleID(now)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2, "the random suffix must differ across calls at the same millisecond")
}

func TestSafeCompare(t *testing.T) {
	assert.True(t, safeCompare("abc", "abc"))
	assert.False(t, safeCompare("abc", "abd"))
	assert.False(t, safeCompare("abc", "abcd"), "unequal length must reject even when one is a prefix of the other")

	long := make([]byte, maxCompareLength+1)
	assert.False(t, safeCompare(string(long), string(long)), "over-long inputs must be rejected regardless of content")
}
