// Package utils provides small shared helpers used across the agent
// execution core.
package utils

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// EstimateTokens approximates the token count of text using the cl100k_base
// encoding via tiktoken-go. This is the fallback used when a provider step
// doesn't report usage (component J's additive-accounting edge case); it
// is never a substitute for a provider-reported count when one exists.
func EstimateTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		// tiktoken's vocab file could not be loaded (offline environment);
		// fall back to the character-per-token heuristic it approximates.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
