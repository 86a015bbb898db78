// Package sanitize keeps provider error and throttling text from reaching
// callers outside the acquisition layer.
package sanitize

import (
	"encoding/json"
	"strings"
)

// DataUnavailableMessage replaces any payload that failed the check.
const DataUnavailableMessage = "Data temporarily unavailable for this symbol."

// Phrases that only appear in provider error or rate-limit responses.
var blockerPhrases = []string{
	"rate limit",
	"api key",
	"alphavantage.co/premium",
	"error message",
	"please subscribe",
}

// Object keys that mark a provider error body.
var blockerKeys = []string{"Note", "Error Message", "Information"}

// IsSafe reports whether v, viewed as JSON, carries neither a blocker key nor
// a blocker phrase in any string value. nil is safe.
func IsSafe(v any) bool {
	tree, ok := toTree(v)
	if !ok {
		return false
	}
	return !contains(tree, true)
}

// IsSafeJSON is IsSafe for an encoded payload.
func IsSafeJSON(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return false
	}
	return !contains(tree, true)
}

// HasMarkerKeys reports whether v carries a provider error key anywhere.
// Free text is not inspected, so news bodies that mention rate limits pass.
func HasMarkerKeys(v any) bool {
	tree, ok := toTree(v)
	if !ok {
		return true
	}
	return contains(tree, false)
}

func toTree(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, false
	}
	return tree, true
}

func contains(node any, phrases bool) bool {
	switch n := node.(type) {
	case map[string]any:
		for _, key := range blockerKeys {
			if _, found := n[key]; found {
				return true
			}
		}
		for _, child := range n {
			if contains(child, phrases) {
				return true
			}
		}
	case []any:
		for _, child := range n {
			if contains(child, phrases) {
				return true
			}
		}
	case string:
		if phrases {
			return containsPhrase(n)
		}
	}
	return false
}

func containsPhrase(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, phrase := range blockerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
