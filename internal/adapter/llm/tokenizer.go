// Package llm provides shared helpers for LLM adapters.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encoder     *tiktoken.Tiktoken
	encoderOnce sync.Once
	encoderErr  error
)

func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoder, encoderErr
}

// EstimateTokens returns an estimated token count for the given text using
// the cl100k_base encoding (the GPT-4 family tokenizer). Used for request
// logging before the provider reports real usage; falls back to a
// character-based estimate if the encoder cannot be initialized.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
