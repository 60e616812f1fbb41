// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resilience

import (
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		b.RecordFailure("api")
	}
	if b.State("api") != CircuitClosed {
		t.Fatalf("state after 2 failures = %v, want closed", b.State("api"))
	}
	if b.IsOpen("api") {
		t.Fatal("IsOpen true while closed")
	}

	b.RecordFailure("api")
	if b.State("api") != CircuitOpen {
		t.Fatalf("state after 3 failures = %v, want open", b.State("api"))
	}
	if !b.IsOpen("api") {
		t.Fatal("IsOpen false after threshold")
	}
}

func TestBreakerSuccessResets(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	b.RecordFailure("api")
	b.RecordFailure("api")
	b.RecordSuccess("api")

	// Counter reset: two more failures stay under threshold.
	b.RecordFailure("api")
	b.RecordFailure("api")
	if b.State("api") != CircuitClosed {
		t.Fatalf("state = %v, want closed after reset", b.State("api"))
	}
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	b := NewBreaker(1, time.Minute)

	base := time.Now()
	b.now = func() time.Time { return base }

	b.RecordFailure("api")
	if !b.IsOpen("api") {
		t.Fatal("circuit not open after threshold failure")
	}

	// Still inside cool-down.
	b.now = func() time.Time { return base.Add(30 * time.Second) }
	if !b.IsOpen("api") {
		t.Fatal("circuit admitted call inside cool-down")
	}

	// Cool-down elapsed: one trial call admitted.
	b.now = func() time.Time { return base.Add(61 * time.Second) }
	if b.IsOpen("api") {
		t.Fatal("circuit still open after cool-down")
	}
	if b.State("api") != CircuitHalfOpen {
		t.Fatalf("state = %v, want half-open", b.State("api"))
	}
}

func TestBreakerHalfOpenTrialFailureReopens(t *testing.T) {
	b := NewBreaker(5, time.Minute)

	base := time.Now()
	b.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		b.RecordFailure("api")
	}
	b.now = func() time.Time { return base.Add(2 * time.Minute) }
	b.IsOpen("api") // transitions to half-open

	// A single failure in half-open reopens regardless of threshold.
	b.RecordFailure("api")
	if b.State("api") != CircuitOpen {
		t.Fatalf("state after half-open failure = %v, want open", b.State("api"))
	}
}

func TestBreakerHalfOpenTrialSuccessCloses(t *testing.T) {
	b := NewBreaker(1, time.Minute)

	base := time.Now()
	b.now = func() time.Time { return base }

	b.RecordFailure("api")
	b.now = func() time.Time { return base.Add(2 * time.Minute) }
	b.IsOpen("api")

	b.RecordSuccess("api")
	if b.State("api") != CircuitClosed {
		t.Fatalf("state after half-open success = %v, want closed", b.State("api"))
	}
}

func TestBreakerEndpointsIndependent(t *testing.T) {
	b := NewBreaker(1, time.Minute)

	b.RecordFailure("flaky")
	if b.IsOpen("healthy") {
		t.Fatal("failure on one endpoint opened another")
	}
	if !b.IsOpen("flaky") {
		t.Fatal("failing endpoint not open")
	}
}

func TestBreakerSnapshot(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	b.RecordFailure("a")
	b.RecordFailure("a")
	b.RecordFailure("b")

	snaps := b.Snapshot()
	if len(snaps) != 2 {
		t.Fatalf("snapshot count = %d, want 2", len(snaps))
	}
	byEndpoint := make(map[string]CircuitSnapshot)
	for _, s := range snaps {
		byEndpoint[s.Endpoint] = s
	}
	if byEndpoint["a"].State != CircuitOpen || byEndpoint["a"].Failures != 2 {
		t.Errorf("snapshot a = %+v", byEndpoint["a"])
	}
	if byEndpoint["b"].State != CircuitClosed || byEndpoint["b"].Failures != 1 {
		t.Errorf("snapshot b = %+v", byEndpoint["b"])
	}
}
