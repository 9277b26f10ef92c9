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

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("cmdQueue", func() {
	var q *cmdQueue[int]

	BeforeEach(func() {
		q = newCmdQueue[int]()
	})

	It("starts empty", func() {
		Expect(q.Empty()).To(BeTrue())
		Expect(q.Len()).To(Equal(0))
		_, ok := q.Front()
		Expect(ok).To(BeFalse())
	})

	It("preserves push order through PopFront", func() {
		q.PushBack(1)
		q.PushBack(2)
		q.PushBack(3)
		Expect(q.All()).To(Equal([]int{1, 2, 3}))

		v, ok := q.PopFront()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1))
		Expect(q.Len()).To(Equal(2))
	})

	It("removes an arbitrary element by index, preserving order", func() {
		q.PushBack(1)
		q.PushBack(2)
		q.PushBack(3)
		q.RemoveAt(1)
		Expect(q.All()).To(Equal([]int{1, 3}))
	})

	It("splices a contiguous prefix run out in order", func() {
		q.PushBack(1)
		q.PushBack(2)
		q.PushBack(3)
		q.PushBack(4)

		out := q.SpliceFront(2)
		Expect(out).To(Equal([]int{1, 2}))
		Expect(q.All()).To(Equal([]int{3, 4}))
	})

	It("clamps SpliceFront to the queue length", func() {
		q.PushBack(1)
		out := q.SpliceFront(10)
		Expect(out).To(Equal([]int{1}))
		Expect(q.Empty()).To(BeTrue())
	})

	It("clears all elements", func() {
		q.PushBack(1)
		q.PushBack(2)
		q.Clear()
		Expect(q.Empty()).To(BeTrue())
	})
})
