// Package markdown locates code spans and code blocks in Markdown source so
// that text transforms can leave literal code alone.
package markdown

import (
	"slices"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Range is a half-open byte range [Start, End) of the source.
type Range struct {
	Start int
	End   int
}

// Contains reports whether [start, end) lies entirely inside r.
func (r Range) Contains(start, end int) bool {
	return start >= r.Start && end <= r.End
}

// CodeRanges returns the byte ranges occupied by inline code spans, fenced code
// blocks and indented code blocks, sorted by start offset. Fence delimiters and
// backticks are included so a reference that straddles them is still covered.
func CodeRanges(body []byte) []Range {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var ranges []Range
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.CodeSpan:
			if r, ok := childSegments(node); ok {
				ranges = append(ranges, widen(body, r, '`'))
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.FencedCodeBlock, *gmast.CodeBlock:
			if r, ok := lineSegments(n); ok {
				ranges = append(ranges, r)
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	slices.SortFunc(ranges, func(a, b Range) int { return a.Start - b.Start })
	return ranges
}

// InCode reports whether [start, end) lies inside any of the sorted ranges.
func InCode(ranges []Range, start, end int) bool {
	i, found := slices.BinarySearchFunc(ranges, start, func(r Range, off int) int {
		if r.End <= off {
			return -1
		}
		if r.Start > off {
			return 1
		}
		return 0
	})
	return found && ranges[i].Contains(start, end)
}

func childSegments(n gmast.Node) (Range, bool) {
	r := Range{Start: -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*gmast.Text)
		if !ok {
			continue
		}
		if r.Start < 0 || t.Segment.Start < r.Start {
			r.Start = t.Segment.Start
		}
		if t.Segment.Stop > r.End {
			r.End = t.Segment.Stop
		}
	}
	return r, r.Start >= 0
}

func lineSegments(n gmast.Node) (Range, bool) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return Range{}, false
	}
	return Range{Start: lines.At(0).Start, End: lines.At(lines.Len() - 1).Stop}, true
}

// widen extends r over adjacent delimiter bytes and the padding space CommonMark strips.
func widen(body []byte, r Range, delim byte) Range {
	for r.Start > 0 && (body[r.Start-1] == delim || body[r.Start-1] == ' ') {
		r.Start--
	}
	for r.End < len(body) && (body[r.End] == delim || body[r.End] == ' ') {
		r.End++
	}
	return r
}
