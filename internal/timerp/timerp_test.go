// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package timerp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetFiresAfterDuration(t *testing.T) {
	chk := require.New(t)
	start := time.Now()
	tm := Get(10 * time.Millisecond)
	<-tm.C
	chk.GreaterOrEqual(time.Since(start), 10*time.Millisecond)
	Put(tm)
}

func TestReusedTimerHasNoStaleFire(t *testing.T) {
	chk := require.New(t)
	// Let a timer fire without reading it, then recycle it.
	tm := Get(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	Put(tm)

	tm = Get(time.Hour)
	defer Put(tm)
	select {
	case <-tm.C:
		chk.FailNow("stale expiration delivered")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSleep(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	chk.NoError(Sleep(ctx, 0))
	chk.NoError(Sleep(ctx, -time.Second))

	start := time.Now()
	chk.NoError(Sleep(ctx, 5*time.Millisecond))
	chk.GreaterOrEqual(time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
	defer cancel()
	chk.ErrorIs(Sleep(ctx, time.Hour), context.DeadlineExceeded)
}
