// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// tickService counts Serve invocations and blocks until canceled.
type tickService struct {
	starts atomic.Int64
}

func (s *tickService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *tickService) String() string { return "tick" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestTree_RunsAndStopsServices(t *testing.T) {
	tree := NewTree(discardLogger(), TreeConfig{})
	svc := &tickService{}
	tree.AddDataService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for svc.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("service never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop on cancel")
	}
}

type stubHTTPServer struct {
	listenErr    error
	listenBlock  chan struct{}
	shutdownSeen atomic.Bool
}

func (s *stubHTTPServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.listenBlock
	return nil
}

func (s *stubHTTPServer) Shutdown(context.Context) error {
	s.shutdownSeen.Store(true)
	close(s.listenBlock)
	return nil
}

func TestHTTPService_GracefulShutdown(t *testing.T) {
	srv := &stubHTTPServer{listenBlock: make(chan struct{})}
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if !srv.shutdownSeen.Load() {
		t.Error("Shutdown was not invoked")
	}
}

func TestHTTPService_ListenFailure(t *testing.T) {
	srv := &stubHTTPServer{listenErr: errors.New("address in use")}
	svc := NewHTTPService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve error = %v, want listen failure", err)
	}
}
