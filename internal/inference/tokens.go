package inference

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer-accurate counting uses the cl100k_base encoding, matching the
// accounting the research workflow was tuned against. Loading the encoding
// can fail (first use fetches the BPE ranks), so every caller has a
// deterministic character-based estimate to fall back on.

const tokenEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, _ = tiktoken.GetEncoding(tokenEncoding)
	})
	return enc
}

// ApproxTokens estimates the token count of text from its byte length.
// Roughly four bytes per token for English prose; never returns zero for
// non-empty input.
func ApproxTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// CountTokens returns the number of tokens in text, using the tokenizer when
// available and the byte-length estimate otherwise.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if e := encoder(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return ApproxTokens(text)
}

// TruncateToTokenLimit shortens text so it fits within limit tokens.
// Returns empty for a non-positive limit and the input unchanged when it
// already fits.
func TruncateToTokenLimit(text string, limit int) string {
	if text == "" || limit <= 0 {
		return ""
	}

	if e := encoder(); e != nil {
		tokens := e.Encode(text, nil, nil)
		if len(tokens) <= limit {
			return text
		}
		return e.Decode(tokens[:limit])
	}

	// Estimate path: cut on the same 4-bytes-per-token assumption.
	if ApproxTokens(text) <= limit {
		return text
	}
	return text[:limit*4]
}
