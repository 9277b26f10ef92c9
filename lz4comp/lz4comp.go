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

// Package lz4comp implements enet.Compressor over lz4, the block
// compressor the teacher's archive helpers already depend on for
// streaming compression; single-block mode fits this module's
// one-datagram-at-a-time shape better than the streaming reader/writer.
package lz4comp

import "github.com/pierrec/lz4/v4"

// Compressor compresses individual datagram payloads with lz4's raw block
// format. Not safe for concurrent use by multiple goroutines against the
// same Compressor value sharing one underlying Compressor; the host only
// ever calls Compress/Decompress from its own service goroutine, so a
// single lz4.Compressor is reused across calls.
type Compressor struct {
	c lz4.Compressor
}

// New returns an lz4 block Compressor.
func New() *Compressor { return &Compressor{} }

// Compress concatenates in and block-compresses it into out, returning the
// number of bytes written, or 0 if out was too small or compression did
// not shrink the input.
func (c *Compressor) Compress(in [][]byte, out []byte) int {
	var total int
	for _, b := range in {
		total += len(b)
	}
	src := make([]byte, 0, total)
	for _, b := range in {
		src = append(src, b...)
	}

	n, err := c.c.CompressBlock(src, out)
	if err != nil || n == 0 {
		return 0
	}
	return n
}

// Decompress expands a block previously produced by Compress into out,
// returning the number of bytes written, or 0 on failure.
func (c *Compressor) Decompress(in []byte, out []byte) int {
	n, err := lz4.UncompressBlock(in, out)
	if err != nil {
		return 0
	}
	return n
}
