// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error   { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 10*time.Second, WithClock(clock))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())

	clock.now = clock.now.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(fail)
	clock.now = clock.now.Add(11 * time.Second)
	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State(), "failed probe reopens the circuit")
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Second)

	_ = cb.Execute(fail)
	_ = cb.Execute(ok)
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailurePredicate(t *testing.T) {
	errNotFound := errors.New("not found")
	cb := NewCircuitBreaker("test", 1, time.Second,
		WithFailurePredicate(func(err error) bool { return !errors.Is(err, errNotFound) }))

	err := cb.Execute(func() error { return errNotFound })
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Second)
	_ = cb.Execute(func() error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.State())
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("test", 0, 0)
	assert.Equal(t, 5, cb.threshold)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
}
