package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestLimiter_Burst(t *testing.T) {
	l := newRequestLimiter(3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow(), "request %d within burst", i)
	}
	assert.False(t, l.allow())
}

func TestRequestLimiter_Configure(t *testing.T) {
	l := newRequestLimiter(1)
	assert.True(t, l.allow())
	assert.False(t, l.allow())

	// same rate keeps the spent bucket
	l.configure(1)
	assert.False(t, l.allow())

	// a new rate starts a fresh bucket
	l.configure(2)
	assert.True(t, l.allow())
	assert.True(t, l.allow())
	assert.False(t, l.allow())
}

func TestRequestLimiter_NonPositiveRate(t *testing.T) {
	l := newRequestLimiter(0)
	assert.Equal(t, 1, l.rpm)
	assert.True(t, l.allow())
	assert.False(t, l.allow())
}
