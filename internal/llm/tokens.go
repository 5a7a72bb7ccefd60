package llm

import (
	"encoding/json"

	"github.com/pkoukk/tiktoken-go"
)

// EstimateTokens returns the heuristic token estimate for a piece of text:
// one token per four UTF-8 bytes, rounded up. Advisory only, never used for
// billing-accurate accounting.
func EstimateTokens(content string) int {
	if len(content) == 0 {
		return 0
	}
	return (len(content) + 3) / 4
}

// EstimateMessageTokens estimates the cost of one transcript entry: the
// content heuristic plus a fixed per-message overhead, plus the serialized
// size of any function-call payload divided by four.
func EstimateMessageTokens(content string, fc *FunctionCall, overhead int) int {
	tokens := EstimateTokens(content) + overhead
	if fc != nil {
		if data, err := json.Marshal(fc); err == nil {
			tokens += len(data) / 4
		}
	}
	return tokens
}

// CountTokens returns an exact token count when an encoding is available for
// the model, falling back to cl100k_base and finally the /4 heuristic.
func CountTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := encodingForModel(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

func encodingForModel(model string) *tiktoken.Tiktoken {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return enc
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil
	}
	return enc
}
