package utils

func Map[T, V any](data []T, fn func(v T) V) []V {
	result := make([]V, 0, len(data))
	for _, dt := range data {
		result = append(result, fn(dt))
	}
	return result
}

func ForEach[T any](data []T, fn func(v T)) {
	for _, dt := range data {
		fn(dt)
	}
}

func Filter[T any](data []T, fn func(v T) bool) []T {
	result := []T{}
	for _, dt := range data {
		if fn(dt) {
			result = append(result, dt)
		}
	}
	return result
}

func Reduce[T, V any](data []T, initial V, fn func(acc V, v T) V) V {
	acc := initial
	for _, dt := range data {
		acc = fn(acc, dt)
	}
	return acc
}
