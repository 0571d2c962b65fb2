// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestManager(t *testing.T, h http.Handler) *Manager {
	t.Helper()
	m, err := NewManager(ServerConfig{ListenAddr: "127.0.0.1:0", ShutdownTimeout: time.Second}, Deps{
		Logger:     zerolog.Nop(),
		APIHandler: h,
	})
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresHandler(t *testing.T) {
	_, err := NewManager(ServerConfig{}, Deps{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, ErrMissingHandler)
}

func TestManagerServesAndShutsDown(t *testing.T) {
	m := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	var order []string
	m.RegisterShutdownHook("first", func(context.Context) error { order = append(order, "first"); return nil })
	m.RegisterShutdownHook("second", func(context.Context) error { order = append(order, "second"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	addr := m.Addr()
	require.NotNil(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestManagerStartTwice(t *testing.T) {
	m := newTestManager(t, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	m.Addr()

	assert.ErrorIs(t, m.Start(ctx), ErrManagerAlreadyStarted)
	cancel()
	require.NoError(t, <-done)
}

func TestShutdownBeforeStart(t *testing.T) {
	m := newTestManager(t, http.NotFoundHandler())
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestShutdownHookErrorsAreJoined(t *testing.T) {
	m := newTestManager(t, http.NotFoundHandler())
	boom := errors.New("boom")
	m.RegisterShutdownHook("cache", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	m.Addr()
	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "hook cache")
}

func TestListenFailureRunsHooks(t *testing.T) {
	m, err := NewManager(ServerConfig{ListenAddr: "256.0.0.1:bad"}, Deps{Logger: zerolog.Nop(), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	closed := false
	m.RegisterShutdownHook("cache", func(context.Context) error { closed = true; return nil })

	require.Error(t, m.Start(context.Background()))
	assert.Nil(t, m.Addr())
	assert.True(t, closed)
}
