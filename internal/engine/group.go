package engine

import "github.com/samber/lo"

// reduceBy groups items by key and folds each group into one value. Groups
// come back in the order their key first appears in items.
func reduceBy[T any, K comparable, A any](items []T, key func(T) K, fold func(K, []T) A) []A {
	groups := lo.GroupBy(items, key)
	order := lo.Uniq(lo.Map(items, func(item T, _ int) K { return key(item) }))
	return lo.Map(order, func(k K, _ int) A { return fold(k, groups[k]) })
}
