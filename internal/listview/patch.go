package listview

// ApplyCreate returns a new slice with item in front of items.
func ApplyCreate[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// ApplyUpdate replaces the first element whose key equals key with
// patch(element). Every other element is copied as is and order is kept.
// When nothing matches, items is returned untouched and ok is false.
func ApplyUpdate[T any, K comparable](items []T, keyOf func(T) K, key K, patch func(T) T) (out []T, ok bool) {
	idx := -1
	for i, item := range items {
		if keyOf(item) == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return items, false
	}

	out = make([]T, len(items))
	copy(out, items)
	out[idx] = patch(items[idx])
	return out, true
}
