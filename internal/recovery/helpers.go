// Package recovery implements the offset bookkeeping shared by every
// subscription that recovers missed publications after a reconnect.
package recovery

import "sort"

// Offset is implemented by anything that can report its position in a
// recoverable stream, so Unique and Merge stay independent of the concrete
// publication type used by the client.
type Offset interface {
	StreamOffset() uint64
}

// Unique returns items with duplicate offsets removed, keeping the first
// occurrence of each offset and the original relative order otherwise.
func Unique[T Offset](items []T) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[uint64]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		off := it.StreamOffset()
		if _, ok := seen[off]; ok {
			continue
		}
		seen[off] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Merge combines publications recovered from server history with
// publications buffered while the recovery was in flight into a single
// duplicate-free, offset-ascending sequence (spec.md §8: "K publication
// events in offset-ascending order before any further publication").
func Merge[T Offset](recovered, buffered []T) []T {
	merged := make([]T, 0, len(recovered)+len(buffered))
	merged = append(merged, recovered...)
	merged = append(merged, buffered...)
	merged = Unique(merged)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StreamOffset() < merged[j].StreamOffset()
	})
	return merged
}
