/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package enet

import "github/sabouaram/enet/protoconst"

// timeLess reports whether a comes strictly before b in wrap-aware 32-bit
// time, using a fixed 24-hour horizon to decide which side has wrapped.
func timeLess(a, b uint32) bool {
	return b-a < protoconst.TimeOverflow && a != b
}

// timeLessEqual reports whether a is before or equal to b, wrap-aware.
func timeLessEqual(a, b uint32) bool {
	return !timeLess(b, a)
}

// timeGreater reports whether a comes strictly after b, wrap-aware.
func timeGreater(a, b uint32) bool {
	return timeLess(b, a)
}

// timeGreaterEqual reports whether a is after or equal to b, wrap-aware.
func timeGreaterEqual(a, b uint32) bool {
	return !timeLess(a, b)
}

// timeDifference returns a-b as a wrap-aware signed difference in the
// 24-hour horizon, saturating at 0 if b is actually ahead of a.
func timeDifference(a, b uint32) uint32 {
	if timeGreaterEqual(a, b) {
		return a - b
	}
	return 0
}

// seq16Less reports whether a precedes b in the wrap-aware 16-bit reliable
// or unreliable sequence space (half-space comparison).
func seq16Less(a, b uint16) bool {
	return int16(a-b) < 0
}

// seq16LessEqual reports whether a precedes or equals b.
func seq16LessEqual(a, b uint16) bool {
	return int16(a-b) <= 0
}

// seq16Greater reports whether a follows b.
func seq16Greater(a, b uint16) bool {
	return int16(a-b) > 0
}

// seq16GreaterEqual reports whether a follows or equals b.
func seq16GreaterEqual(a, b uint16) bool {
	return int16(a-b) >= 0
}

// seq16Diff returns a-b interpreted as a signed 16-bit wrap-aware distance.
func seq16Diff(a, b uint16) int16 {
	return int16(a - b)
}
