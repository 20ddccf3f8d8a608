// SPDX-License-Identifier: MIT
package psd

import "math"

// FloorDB is the level assigned to non-positive power values, which have no
// logarithm.
const FloorDB = -200.0

// ToDB converts a linear power value to decibels (10*log10). Values <= 0 map
// to FloorDB. +Inf stays +Inf.
func ToDB(value float64) float64 {
	if value <= 0 {
		return FloorDB
	}
	return 10 * math.Log10(value)
}

// ToDBSlice converts every value of src into dst, allocating dst when it is
// nil or too short.
func ToDBSlice(dst, src []float64) []float64 {
	if len(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = ToDB(v)
	}
	return dst
}
