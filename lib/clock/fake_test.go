// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAdvances(t *testing.T) {
	fake := Fake(testEpoch)
	if got := fake.Now(); !got.Equal(testEpoch) {
		t.Fatalf("Now() = %v, want %v", got, testEpoch)
	}

	fake.Advance(90 * time.Second)
	want := testEpoch.Add(90 * time.Second)
	if got := fake.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeAfterFiresAtDeadline(t *testing.T) {
	fake := Fake(testEpoch)
	ch := fake.After(10 * time.Second)

	fake.Advance(9 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	fake.Advance(time.Second)
	select {
	case fired := <-ch:
		if !fired.Equal(testEpoch.Add(10 * time.Second)) {
			t.Fatalf("fire time = %v, want %v", fired, testEpoch.Add(10*time.Second))
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	fake := Fake(testEpoch)
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeSleepBlocksUntilAdvance(t *testing.T) {
	fake := Fake(testEpoch)

	done := make(chan struct{})
	go func() {
		fake.Sleep(500 * time.Millisecond)
		close(done)
	}()

	fake.WaitForWaiters(1)
	select {
	case <-done:
		t.Fatal("Sleep returned before Advance")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	fake := Fake(testEpoch)
	ticker := fake.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	fake.Advance(250 * time.Millisecond)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	// A multi-interval advance delivers at most one buffered tick.
	fake.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after multi-interval advance")
	}
}

func TestFakeTickerStop(t *testing.T) {
	fake := Fake(testEpoch)
	ticker := fake.NewTicker(time.Second)
	ticker.Stop()

	fake.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}

	if got := fake.Pending(); got != 0 {
		t.Fatalf("Pending() = %d after Stop, want 0", got)
	}
}

func TestFakeConcurrentWaiters(t *testing.T) {
	fake := Fake(testEpoch)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fake.Sleep(time.Second)
		}()
	}

	fake.WaitForWaiters(10)
	fake.Advance(time.Second)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("sleepers did not all wake")
	}
}
