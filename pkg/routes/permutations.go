package routes

import "iter"

// Permutations yields every ordered selection of k distinct elements of items.
// Selections are produced in lexicographic order of their indices, with later
// positions varying fastest. The yielded slice is reused between iterations and
// must be copied if retained. No selections are produced when k <= 0 or
// k > len(items).
func Permutations[T any](items []T, k int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		n := len(items)
		if k <= 0 || k > n {
			return
		}

		used := make([]bool, n)
		out := make([]T, k)

		var walk func(pos int) bool
		walk = func(pos int) bool {
			if pos == k {
				return yield(out)
			}
			for i := range n {
				if used[i] {
					continue
				}
				used[i] = true
				out[pos] = items[i]
				cont := walk(pos + 1)
				used[i] = false
				if !cont {
					return false
				}
			}
			return true
		}
		walk(0)
	}
}
