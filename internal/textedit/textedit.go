// Package textedit applies byte-range replacements to a source string so that
// every byte outside the edited ranges is carried over unchanged.
package textedit

import (
	"fmt"
	"slices"
	"strings"
)

// Edit replaces src[Start:End] with Replacement. Offsets refer to the original source.
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// Apply returns src with edits applied. Edits may be given in any order but
// must not overlap. Two insertions at the same offset keep their given order.
func Apply(src string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int { return a.Start - b.Start })

	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < e.Start:
			return "", fmt.Errorf("invalid edit[%d]: range [%d,%d)", i, e.Start, e.End)
		case e.End > len(src):
			return "", fmt.Errorf("invalid edit[%d]: range [%d,%d) out of bounds (len %d)", i, e.Start, e.End, len(src))
		case e.Start < pos:
			return "", fmt.Errorf("invalid edit[%d]: overlaps previous edit ending at %d", i, pos)
		}
		b.WriteString(src[pos:e.Start])
		b.WriteString(e.Replacement)
		pos = e.End
	}
	b.WriteString(src[pos:])
	return b.String(), nil
}
