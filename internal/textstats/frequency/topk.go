package frequency

import (
	"container/heap"
	"sort"
)

// topK returns the k best items under better, in best-first order. It keeps
// a bounded min-heap so large vocabularies are not fully sorted. k <= 0
// returns every item sorted.
func topK[T any](items []T, k int, better func(a, b T) bool) []T {
	if k <= 0 || k >= len(items) {
		out := make([]T, len(items))
		copy(out, items)
		sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
		return out
	}
	h := &boundedHeap[T]{better: better}
	for _, item := range items {
		heap.Push(h, item)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]T, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(T)
	}
	return out
}

// boundedHeap keeps the worst item at the root.
type boundedHeap[T any] struct {
	items  []T
	better func(a, b T) bool
}

func (h *boundedHeap[T]) Len() int { return len(h.items) }

func (h *boundedHeap[T]) Less(i, j int) bool {
	return h.better(h.items[j], h.items[i])
}

func (h *boundedHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *boundedHeap[T]) Push(x any) {
	h.items = append(h.items, x.(T))
}

func (h *boundedHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
