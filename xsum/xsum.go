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

// Package xsum implements enet.Checksum over xxhash, the fast
// non-cryptographic hash already pulled in transitively by the validator
// stack and used directly here instead of behind a second vendor layer.
package xsum

import "github.com/cespare/xxhash/v2"

// Checksum computes a 32-bit datagram checksum with xxhash, truncating its
// 64-bit digest. Safe for concurrent use; a fresh xxhash.Digest is created
// per call.
type Checksum struct{}

// New returns an xxhash-backed Checksum.
func New() Checksum { return Checksum{} }

// Sum hashes buffers in order and returns the low 32 bits of the digest.
func (Checksum) Sum(buffers [][]byte) uint32 {
	d := xxhash.New()
	for _, b := range buffers {
		_, _ = d.Write(b)
	}
	return uint32(d.Sum64())
}
