package xlog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	empty := Err(nil)
	assert.Equal(t, "", empty.Key, "a nil error must produce an empty attr the handler drops")
}

func TestDomainAttrs(t *testing.T) {
	assert.Equal(t, KeyComponent, Component("locker").Key)
	assert.Equal(t, "locker", Component("locker").Value.String())

	assert.Equal(t, KeyDuration, Duration(time.Second).Key)
	assert.Equal(t, KeyLockKey, LockKey("jobs:nightly").Key)
	assert.Equal(t, "jobs:nightly", LockKey("jobs:nightly").Value.String())
	assert.Equal(t, KeyStore, Store("redis-1").Key)
	assert.Equal(t, KeyAttempt, Attempt(3).Key)
	assert.Equal(t, int64(3), Attempt(3).Value.Int64())
}
