// Package pager splits an ordered collection into fixed-size pages.
package pager

// Item is one row of a page. Ordinal is 1-based and continues across
// pages.
type Item[T any] struct {
	Ordinal int
	Value   T
}

// Result is a single page.
type Result[T any] struct {
	Items   []Item[T]
	Index   int // 0-based, after clamping
	Total   int // number of pages, at least 1
	HasPrev bool
	HasNext bool
}

// First returns the ordinal of the first item on the page, or 0 if empty.
func (r Result[T]) First() int {
	if len(r.Items) == 0 {
		return 0
	}
	return r.Items[0].Ordinal
}

// Last returns the ordinal of the last item on the page, or 0 if empty.
func (r Result[T]) Last() int {
	if len(r.Items) == 0 {
		return 0
	}
	return r.Items[len(r.Items)-1].Ordinal
}

// Page returns page requested of items. requested is clamped into
// [0, Total-1]; a size below 1 is treated as 1.
func Page[T any](items []T, size, requested int) Result[T] {
	size = max(size, 1)
	total := max((len(items)+size-1)/size, 1)
	index := min(max(requested, 0), total-1)

	start := index * size
	end := min(start+size, len(items))

	r := Result[T]{
		Index:   index,
		Total:   total,
		HasPrev: index > 0,
		HasNext: index < total-1,
	}
	for i := start; i < end; i++ {
		r.Items = append(r.Items, Item[T]{Ordinal: i + 1, Value: items[i]})
	}
	return r
}
