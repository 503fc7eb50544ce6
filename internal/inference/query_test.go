package inference

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubBackend returns scripted responses and errors in order.
type stubBackend struct {
	responses []Response
	errs      []error
	calls     int
	lastReq   Request
}

func (s *stubBackend) Complete(_ context.Context, req Request) (Response, error) {
	i := s.calls
	s.calls++
	s.lastReq = req
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp Response
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func TestQuerySuccess(t *testing.T) {
	b := &stubBackend{responses: []Response{{Text: "the answer"}}}

	got, err := Query(context.Background(), b, Request{Prompt: "question"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "the answer" {
		t.Errorf("Query() = %q, want %q", got, "the answer")
	}
	if b.calls != 1 {
		t.Errorf("backend calls = %d, want 1", b.calls)
	}
}

func TestQueryRetriesThenSucceeds(t *testing.T) {
	b := &stubBackend{
		responses: []Response{{}, {Text: "recovered"}},
		errs:      []error{errors.New("transient"), nil},
	}

	got, err := Query(context.Background(), b, Request{Prompt: "q"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Query() = %q, want %q", got, "recovered")
	}
	if b.calls != 2 {
		t.Errorf("backend calls = %d, want 2", b.calls)
	}
}

func TestQueryExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	b := &stubBackend{errs: []error{boom, boom, boom}}

	_, err := Query(context.Background(), b, Request{Prompt: "q"})
	if err == nil {
		t.Fatal("Query() expected error after exhausted attempts")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Query() error = %v, want wrapped boom", err)
	}
	if b.calls != 3 {
		t.Errorf("backend calls = %d, want 3", b.calls)
	}
}

func TestBackoffDelayDoubles(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := backoffDelay(i + 1); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestQueryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &stubBackend{errs: []error{errors.New("whatever")}}

	_, err := Query(ctx, b, Request{Prompt: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Query() error = %v, want context.Canceled", err)
	}
}

func TestQueryPassesRequestThrough(t *testing.T) {
	b := &stubBackend{responses: []Response{{Text: "ok"}}}
	req := Request{
		Model:        "claude-3-5-haiku-20241022",
		SystemPrompt: "be terse",
		Prompt:       "q",
		Temperature:  0.4,
		MaxTokens:    128,
		JSONFormat:   true,
	}
	if _, err := Query(context.Background(), b, req); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if b.lastReq != req {
		t.Errorf("backend saw %+v, want %+v", b.lastReq, req)
	}
}
