package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps loosely written user input (any case, surrounding spaces) onto typed enum values.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
}

// NewNormalizer creates a normalizer over the given spellings. fallback is returned
// by Normalize for unrecognised input.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the enum for raw, or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return n.fallback
}

// Parse returns the enum for raw or an error listing the accepted spellings.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// ValidKeys returns the accepted spellings in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.keys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
