package inference

import (
	"math"
	"testing"
)

func TestLedgerRecordTotals(t *testing.T) {
	l := NewLedger()

	l.Record("claude-sonnet-4-20250514", 100, 50)
	l.Record("claude-sonnet-4-20250514", 200, 100)
	l.Record("claude-3-5-haiku-20241022", 1000, 500)

	if got := l.TokensIn(); got != 1300 {
		t.Errorf("TokensIn() = %d, want 1300", got)
	}
	if got := l.TokensOut(); got != 650 {
		t.Errorf("TokensOut() = %d, want 650", got)
	}
	if got := l.Calls(); got != 3 {
		t.Errorf("Calls() = %d, want 3", got)
	}
}

func TestLedgerCostEstimate(t *testing.T) {
	l := NewLedger()
	l.Record("claude-sonnet-4-20250514", 1_000_000, 1_000_000)

	// Sonnet: $3/1M in + $15/1M out.
	if got := l.CostEstimate(); math.Abs(got-18.0) > 1e-9 {
		t.Errorf("CostEstimate() = %f, want 18.0", got)
	}
}

func TestLedgerCostEstimateUnknownModel(t *testing.T) {
	l := NewLedger()
	l.Record("some-future-model", 1_000_000, 0)

	// Unknown models fall back to sonnet-class pricing instead of zero.
	if got := l.CostEstimate(); got <= 0 {
		t.Errorf("CostEstimate() = %f, want > 0 for unknown model", got)
	}
}

func TestLedgerReset(t *testing.T) {
	l := NewLedger()
	l.Record("claude-sonnet-4-20250514", 100, 100)
	l.Reset()

	if l.TokensIn() != 0 || l.TokensOut() != 0 || l.Calls() != 0 {
		t.Errorf("after Reset: in=%d out=%d calls=%d, want all zero",
			l.TokensIn(), l.TokensOut(), l.Calls())
	}
}

func TestDefaultLedgerShared(t *testing.T) {
	if DefaultLedger() != DefaultLedger() {
		t.Error("DefaultLedger() returned distinct instances")
	}
}

func TestApproxTokens(t *testing.T) {
	if got := ApproxTokens(""); got != 0 {
		t.Errorf("ApproxTokens(empty) = %d, want 0", got)
	}
	if got := ApproxTokens("ab"); got != 1 {
		t.Errorf("ApproxTokens(short) = %d, want 1", got)
	}
	if got := ApproxTokens("aaaabbbbcccc"); got != 3 {
		t.Errorf("ApproxTokens(12 bytes) = %d, want 3", got)
	}
}

func TestCountTokensEmpty(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Errorf("CountTokens(empty) = %d, want 0", got)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	if got := TruncateToTokenLimit("anything", 0); got != "" {
		t.Errorf("TruncateToTokenLimit(limit=0) = %q, want empty", got)
	}
	if got := TruncateToTokenLimit("", 10); got != "" {
		t.Errorf("TruncateToTokenLimit(empty) = %q, want empty", got)
	}
	// A small text within a generous limit passes through untouched.
	if got := TruncateToTokenLimit("hi there", 100); got != "hi there" {
		t.Errorf("TruncateToTokenLimit(fits) = %q, want input", got)
	}
}
