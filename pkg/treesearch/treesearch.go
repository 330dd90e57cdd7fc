// Package treesearch finds nodes in a tree by predicate and ranking key,
// independent of the concrete node type.
package treesearch

import "cmp"

// Walk visits every node of the forest in pre-order (document order).
// Returning false from visit stops the walk.
func Walk[N any](roots []N, children func(N) []N, visit func(N) bool) {
	stack := make([]N, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(n) {
			return
		}

		kids := children(n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Filter returns every node accepted by keep, in pre-order.
func Filter[N any](roots []N, children func(N) []N, keep func(N) bool) []N {
	var out []N
	Walk(roots, children, func(n N) bool {
		if keep(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Best returns the node accepted by keep with the greatest rank.
// Ties go to the node visited first. ok is false when nothing was accepted.
func Best[N any, K cmp.Ordered](roots []N, children func(N) []N, keep func(N) bool, rank func(N) K) (best N, ok bool) {
	var bestRank K
	Walk(roots, children, func(n N) bool {
		if !keep(n) {
			return true
		}
		r := rank(n)
		if !ok || r > bestRank {
			best, bestRank, ok = n, r, true
		}
		return true
	})
	return best, ok
}

// MaxBy returns the element of items with the greatest rank, first one on ties.
func MaxBy[N any, K cmp.Ordered](items []N, rank func(N) K) (best N, ok bool) {
	return Best(items, func(N) []N { return nil }, func(N) bool { return true }, rank)
}
