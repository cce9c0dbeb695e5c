package ecs

import "fmt"

// EntityIndex is the slot portion of an Entity handle.
type EntityIndex = uint16

// EntityVersion is the generation portion of an Entity handle. It wraps on
// overflow.
type EntityVersion = uint16

// Entity is a stable, generation-tagged handle identifying a record in a
// World. Two entities are equal iff both their index and version match;
// reusing an index after a delete always produces a different version, so a
// stale handle never aliases a live one.
type Entity struct {
	Index   EntityIndex
	Version EntityVersion
}

// String renders the entity as "index#version".
func (e Entity) String() string {
	return fmt.Sprintf("%d#%d", e.Index, e.Version)
}

// location is where a live entity's data actually resides.
type location struct {
	archetype *Archetype
	chunk     *Chunk
	slot      int
}
