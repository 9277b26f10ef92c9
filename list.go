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

// cmdQueue is an ordered collection of queued commands standing in for the
// reference implementation's intrusive doubly-linked lists. It is a plain
// slice: push at the back, pop and splice at the front, and removal of an
// arbitrary element by index, which shifts the elements after it (O(n)).
// There is no push at the front or pop at the back. A plain slice is
// sufficient at the command-per-service-cycle volumes this transport
// operates at; there is no need for a free-list-backed slab.
type cmdQueue[T any] struct {
	items []T
}

func newCmdQueue[T any]() *cmdQueue[T] {
	return &cmdQueue[T]{items: make([]T, 0, 8)}
}

func (q *cmdQueue[T]) PushBack(v T) {
	q.items = append(q.items, v)
}

func (q *cmdQueue[T]) Len() int { return len(q.items) }

func (q *cmdQueue[T]) Empty() bool { return len(q.items) == 0 }

func (q *cmdQueue[T]) Front() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

func (q *cmdQueue[T]) At(i int) T { return q.items[i] }

func (q *cmdQueue[T]) All() []T { return q.items }

// PopFront removes and returns the first element.
func (q *cmdQueue[T]) PopFront() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

// RemoveAt removes the element at index i, preserving order.
func (q *cmdQueue[T]) RemoveAt(i int) {
	q.items = append(q.items[:i], q.items[i+1:]...)
}

// SpliceFront moves the first n elements out, in order, clearing them from
// this queue. Used to dispatch a contiguous run of reliable commands.
func (q *cmdQueue[T]) SpliceFront(n int) []T {
	if n > len(q.items) {
		n = len(q.items)
	}
	out := make([]T, n)
	copy(out, q.items[:n])
	q.items = q.items[n:]
	return out
}

// Clear empties the queue, releasing references to its elements.
func (q *cmdQueue[T]) Clear() {
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
}
