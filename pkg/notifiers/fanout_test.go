package notifiers

import (
	"context"
	"errors"
	"testing"
)

type stubNotifier struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubNotifier) ID() string   { return s.id }
func (s *stubNotifier) Type() string { return s.typ }
func (s *stubNotifier) Notify(context.Context, Event) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) Close() error {
	s.closed = true
	return nil
}

func TestFanoutNotifyAggregatesErrors(t *testing.T) {
	ok := &stubNotifier{id: "ok", typ: "http"}
	bad := &stubNotifier{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Notifier{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil notifiers to be dropped, size=%d", fanout.Size())
	}

	count, err := fanout.Notify(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("every notifier must be attempted, calls ok=%d bad=%d", ok.calls, bad.calls)
	}
}

func TestFanoutCloseReleasesClosers(t *testing.T) {
	n := &stubNotifier{id: "n", typ: "gcp_pubsub"}
	if err := NewFanout([]Notifier{n}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !n.closed {
		t.Fatalf("expected notifier to be closed")
	}
}

func TestNilFanoutIsSafe(t *testing.T) {
	var f *Fanout
	if n, err := f.Notify(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Notify = %d, %v", n, err)
	}
	if f.Size() != 0 {
		t.Fatalf("nil fanout Size != 0")
	}
}

func TestBuildAllWithDefaultBuilders(t *testing.T) {
	built, err := DefaultBuilders().BuildAll(context.Background(), []NotifierConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPNotifierConfig{URL: "https://example.com"}},
	}, Env{})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(built) != 1 || built[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http notifier, got %#v", built)
	}
}

func TestBuildAllUnknownTypeClosesBuilt(t *testing.T) {
	first := &stubNotifier{id: "first", typ: "stub"}
	builders := Builders{
		"stub": func(context.Context, NotifierConfig, Env) (Notifier, error) { return first, nil },
	}

	_, err := builders.BuildAll(context.Background(), []NotifierConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "carrier-pigeon"},
	}, Env{})
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if !first.closed {
		t.Fatalf("expected already built notifier to be closed")
	}
}
