package parley

import "strings"

// ParseArgs splits a raw command line into whitespace-delimited arguments,
// trims each, drops the leading command token, and removes duplicate tokens
// while preserving first-occurrence order.
func ParseArgs(line string) []string {
	tokens := strings.Fields(line)
	if len(tokens) <= 1 {
		return nil
	}
	tokens = tokens[1:]

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
