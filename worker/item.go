// Package worker provides the producer and consumer goroutine bodies that
// exercise a shared bounded buffer, plus the Item records they move through
// it. Each worker keeps its own counters; they are written only by the
// worker's own goroutine and safe to read after the worker has been joined.
package worker

import "fmt"

// Item is an opaque payload moved from a producer's source slice through the
// buffer into a consumer's destination slice. It is never mutated after
// creation; only its ownership changes.
type Item struct {
	// ID is globally unique across producers, "P<producer>-<seq>".
	ID string
	// Producer tags the item with the producer that created it.
	Producer string
	// Seq is the item's position within its producer's source, starting at 0.
	Seq int
	// Data is the payload. It carries no correctness semantics.
	Data string
}

// NewItem builds the item with sequence number seq for producer p.
func NewItem(p, seq int, data string) Item {
	return Item{
		ID:       fmt.Sprintf("P%d-%d", p, seq),
		Producer: fmt.Sprintf("P%d", p),
		Seq:      seq,
		Data:     data,
	}
}
