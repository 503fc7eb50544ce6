package inference

import "sync"

// ModelPricing contains pricing per 1M tokens for a model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultModelPricing contains pricing for known Claude models.
var DefaultModelPricing = map[string]ModelPricing{
	"claude-opus-4-1-20250805":   {InputPerMillion: 15.00, OutputPerMillion: 75.00},
	"claude-sonnet-4-20250514":   {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 1.00, OutputPerMillion: 5.00},
	"claude-3-5-haiku-20241022":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"claude-3-5-sonnet-20241022": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
}

// fallbackPricing is applied to models missing from the table so running
// totals never silently undercount.
var fallbackPricing = ModelPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}

// Ledger accumulates token usage per model across the process lifetime and
// estimates the cost of everything recorded so far.
type Ledger struct {
	mu      sync.Mutex
	in      map[string]int64
	out     map[string]int64
	calls   int
	pricing map[string]ModelPricing
}

// NewLedger creates an empty usage ledger with default pricing.
func NewLedger() *Ledger {
	return &Ledger{
		in:      make(map[string]int64),
		out:     make(map[string]int64),
		pricing: DefaultModelPricing,
	}
}

var defaultLedger = NewLedger()

// DefaultLedger returns the process-wide ledger.
func DefaultLedger() *Ledger {
	return defaultLedger
}

// Record adds an API call's usage for the given model.
func (l *Ledger) Record(model string, inputTokens, outputTokens int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.in[model] += inputTokens
	l.out[model] += outputTokens
	l.calls++
}

// TokensIn returns total input tokens recorded, across all models.
func (l *Ledger) TokensIn() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total int64
	for _, n := range l.in {
		total += n
	}
	return total
}

// TokensOut returns total output tokens recorded, across all models.
func (l *Ledger) TokensOut() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total int64
	for _, n := range l.out {
		total += n
	}
	return total
}

// Calls returns the number of API calls recorded.
func (l *Ledger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// CostEstimate returns the estimated USD cost of all recorded usage.
func (l *Ledger) CostEstimate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cost float64
	for model, n := range l.in {
		cost += float64(n) / 1_000_000 * l.priceFor(model).InputPerMillion
	}
	for model, n := range l.out {
		cost += float64(n) / 1_000_000 * l.priceFor(model).OutputPerMillion
	}
	return cost
}

// priceFor must be called with the lock held.
func (l *Ledger) priceFor(model string) ModelPricing {
	if p, ok := l.pricing[model]; ok {
		return p
	}
	return fallbackPricing
}

// Reset clears all recorded usage.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.in = make(map[string]int64)
	l.out = make(map[string]int64)
	l.calls = 0
}
