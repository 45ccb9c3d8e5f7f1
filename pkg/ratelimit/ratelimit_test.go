package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilLimiterNeverBlocks(t *testing.T) {
	l := New(0)
	assert.Nil(t, l)
	assert.NoError(t, l.Wait(context.Background()))
}

func TestBurstThenThrottle(t *testing.T) {
	l := New(60) // 1/s, burst 6
	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		assert.NoError(t, l.Wait(ctx))
		cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}
