// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice compliments the standard [slices] package by providing functional
programming utilities (Map, Filter, DedupeLast) leveraging generics.
*/
package slice

// Map maps a slice of type T to a slice of type U using the provided transformation function.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// Filter filters a slice, returning only elements where the predicate function evaluates to true.
func Filter[T any](input []T, predicate func(T) bool) []T {
	if input == nil {
		return nil
	}

	// Not pre-allocating to full length to avoid excessive memory on heavy filters
	var result []T
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}

	return result
}

// DedupeLast keeps exactly one element per key. When a key repeats, the last
// element seen wins, placed at the position where the key first appeared.
func DedupeLast[T any, K comparable](input []T, key func(T) K) []T {
	if input == nil {
		return nil
	}

	position := make(map[K]int, len(input))
	result := make([]T, 0, len(input))
	for _, v := range input {
		k := key(v)
		if i, seen := position[k]; seen {
			result[i] = v
			continue
		}
		position[k] = len(result)
		result = append(result, v)
	}

	return result
}

// Index builds a lookup map from key to element (last element wins).
func Index[T any, K comparable](input []T, key func(T) K) map[K]T {
	result := make(map[K]T, len(input))
	for _, v := range input {
		result[key(v)] = v
	}
	return result
}
