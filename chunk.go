package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/table"
)

// Chunk is a fixed-capacity, columnar slice of one archetype: a parallel
// entity list plus one densely-packed column per component type and one
// immutable value per shared type. It wraps exactly one table.Table per
// chunk, rather than one per archetype, so a fixed capacity and a
// distinct shared-value tuple can coexist across multiple chunks within a
// single archetype.
type Chunk struct {
	archetype *Archetype
	table     table.Table
	entities  []Entity
	entryIDs  []table.EntryID
	shared    map[uint32]any
	capacity  int
}

func newChunk(a *Archetype, tbl table.Table, shared map[uint32]any, capacity int) *Chunk {
	return &Chunk{archetype: a, table: tbl, shared: shared, capacity: capacity}
}

// IsFull reports whether the chunk has reached its capacity.
func (c *Chunk) IsFull() bool { return len(c.entities) >= c.capacity }

// Len returns the chunk's current occupancy.
func (c *Chunk) Len() int { return len(c.entities) }

// Capacity returns the chunk's fixed maximum occupancy.
func (c *Chunk) Capacity() int { return c.capacity }

// Entities returns the chunk's entity column.
func (c *Chunk) Entities() []Entity { return c.entities }

// Archetype returns the archetype this chunk belongs to.
func (c *Chunk) Archetype() *Archetype { return c.archetype }

func (c *Chunk) hasComponent(et table.ElementType) bool {
	return c.archetype.hasComponent(et)
}

func (c *Chunk) sharedValuesMatch(values map[uint32]any) bool {
	if len(values) != len(c.shared) {
		return false
	}
	for id, v := range values {
		existing, ok := c.shared[id]
		if !ok || existing != v {
			return false
		}
	}
	return true
}

// append grows the chunk by one row and records e in the entity column.
// Precondition: !c.IsFull(). Returns the new entry's slot.
func (c *Chunk) append(e Entity) (int, error) {
	if c.IsFull() {
		return -1, ChunkFullError{Capacity: c.capacity}
	}
	entries, err := c.table.NewEntries(1)
	if err != nil {
		return -1, fmt.Errorf("appending chunk row: %w", err)
	}
	c.entities = append(c.entities, e)
	c.entryIDs = append(c.entryIDs, entries[0].ID())
	return len(c.entities) - 1, nil
}

// swapRemove removes the entity at slot, moving the chunk's tail entity into
// its place. The underlying table swap-removes the row the same way, keyed by
// its row index (the slot), so the parallel bookkeeping here mirrors what the
// table already did to its columns. Returns the entity that was moved and
// whether a move actually happened (false when slot was already the tail).
func (c *Chunk) swapRemove(slot int) (moved Entity, hadMove bool, err error) {
	n := len(c.entities)
	if slot < 0 || slot >= n {
		return Entity{}, false, fmt.Errorf("slot %d out of range [0,%d)", slot, n)
	}
	if _, err := c.table.DeleteEntries(slot); err != nil {
		return Entity{}, false, fmt.Errorf("deleting chunk row: %w", err)
	}
	last := n - 1
	if slot != last {
		moved = c.entities[last]
		c.entities[slot] = moved
		c.entryIDs[slot] = c.entryIDs[last]
		hadMove = true
	}
	c.entities = c.entities[:last]
	c.entryIDs = c.entryIDs[:last]
	return moved, hadMove, nil
}
