// Package tokenizer counts tokens for usage accounting.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts the tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the cl100k_base encoding, which
// covers every model family the router can select.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load cl100k_base encoding: %w", err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxCounter estimates tokens at four bytes per token. Used as a
// fallback when the BPE data cannot be loaded, and by tests that need
// deterministic counts without the encoding files.
type ApproxCounter struct{}

// Count returns a rough token estimate for text.
func (ApproxCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
