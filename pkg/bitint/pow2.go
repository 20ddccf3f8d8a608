// SPDX-License-Identifier: MIT

// Package bitint provides power-of-two helpers used to size FFT grids.
//
// A spectral grid of nFreq points is evaluated with an FFT of length
// 2*(nFreq-1); radix-2 lengths are the fast path, so callers use these helpers
// to check a grid and to suggest the nearest fast one.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size, and 1 for
// size <= 0.
//
// The subtraction keeps exact powers of two unchanged: for 8, bits.Len(7) is
// 3 and 1<<3 is 8 again, while bits.Len(8) would give 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
