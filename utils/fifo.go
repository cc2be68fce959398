package utils

import (
	"bytes"
	"fmt"
	"io"
)

type node[T any] struct {
	data T
	next *node[T]
}

// Fifo is a singly-linked first-in-first-out queue. It does no locking of
// its own: a Fifo shared across goroutines must be serialized by the caller
// (the bounded buffer holds exactly one lock around every operation, so a
// second lock here would be redundant).
type Fifo[T any] struct {
	head   *node[T]
	tail   *node[T]
	length int
}

func (f *Fifo[T]) Len() int {
	return f.length
}

func (f *Fifo[T]) PushBack(v T) {
	n := &node[T]{data: v}
	f.length++
	if f.head == nil && f.tail == nil {
		f.head = n
		f.tail = n
		return
	}
	f.tail.next = n
	f.tail = n
}

func (f *Fifo[T]) PopFront() (T, bool) {
	if f.head == nil && f.tail == nil {
		var zeroVal T
		return zeroVal, false
	}

	f.length--
	n := f.head
	if n.next == nil {
		f.head = nil
		f.tail = nil
		return n.data, true
	}

	f.head = n.next
	n.next = nil //  break the chain
	return n.data, true
}

func (f *Fifo[T]) Print(w io.Writer) {
	buffer := bytes.NewBufferString("")
	for current := f.head; current != nil; current = current.next {
		buffer.WriteString(fmt.Sprintf("%v ->", current.data))
	}
	buffer.WriteString("nil \n")
	w.Write(buffer.Bytes())
}
