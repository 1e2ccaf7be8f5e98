package models

import (
	"iter"
	"time"
)

// Sequence is an immutable, finite list of parsed records. Every call to
// All or Values starts again from the first element.
type Sequence[T any] struct {
	items []T
}

// NewSequence copies items so the caller's slice can be reused.
func NewSequence[T any](items []T) Sequence[T] {
	if len(items) == 0 {
		return Sequence[T]{}
	}
	cp := make([]T, len(items))
	copy(cp, items)
	return Sequence[T]{items: cp}
}

func (s Sequence[T]) Len() int {
	return len(s.items)
}

// At returns the i-th element. It panics if i is out of range, like a slice index.
func (s Sequence[T]) At(i int) T {
	return s.items[i]
}

func (s Sequence[T]) First() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[0], true
}

func (s Sequence[T]) Last() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// All yields index/value pairs in order.
func (s Sequence[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range s.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Values yields the elements in order.
func (s Sequence[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Slice returns a fresh copy of the elements.
func (s Sequence[T]) Slice() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// TimeSpan returns the timestamps of the first and last elements of seq.
// ok is false for an empty sequence.
func TimeSpan[T any](seq Sequence[T], stamp func(T) time.Time) (start, end time.Time, ok bool) {
	first, ok := seq.First()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	last, _ := seq.Last()
	return stamp(first), stamp(last), true
}
