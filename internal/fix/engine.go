package fix

import (
	"errors"
	"fmt"
	"sort"

	"typhon/internal/diag"
)

// ErrOverlap is returned when a fix's edits touch overlapping ranges.
var ErrOverlap = errors.New("fix edits overlap")

// Apply rewrites content with every edit of the fix. Edits apply back
// to front, so earlier offsets stay valid. Overlapping edits and edits
// beyond the content are rejected.
func Apply(content []byte, f diag.Fix) ([]byte, error) {
	if len(f.Edits) == 0 {
		return content, nil
	}

	edits := make([]diag.FixEdit, len(f.Edits))
	copy(edits, f.Edits)
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Span.Start < edits[j].Span.Start
	})

	for i, e := range edits {
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(content) {
			return nil, fmt.Errorf("edit span %s out of range", e.Span)
		}
		if i > 0 && edits[i-1].Span.End > e.Span.Start {
			return nil, ErrOverlap
		}
	}

	out := make([]byte, len(content))
	copy(out, content)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		head := out[:e.Span.Start]
		tail := out[e.Span.End:]
		next := make([]byte, 0, len(head)+len(e.NewText)+len(tail))
		next = append(next, head...)
		next = append(next, e.NewText...)
		next = append(next, tail...)
		out = next
	}
	return out, nil
}
