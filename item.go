// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"fmt"
	"time"
)

// ItemID identifies an item within a run.
type ItemID struct {
	ProducerID int
	Sequence   int
}

func (id ItemID) String() string {
	return fmt.Sprintf("Item-%d-%d", id.ProducerID, id.Sequence)
}

// Item is a unit of work. Items are passed by value and are not modified after
// creation.
type Item[T any] struct {
	ProducerID int
	Sequence   int
	Payload    T
	Created    time.Time
}

// NewItem returns an item stamped with the current time.
func NewItem[T any](producerID, sequence int, payload T) Item[T] {
	return Item[T]{
		ProducerID: producerID,
		Sequence:   sequence,
		Payload:    payload,
		Created:    time.Now(),
	}
}

// ID returns the item's identity.
func (it Item[T]) ID() ItemID {
	return ItemID{ProducerID: it.ProducerID, Sequence: it.Sequence}
}
