package ecs

import (
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
	"github.com/rs/zerolog"
)

// World is one self-contained collection of entities, their component data,
// and the resources visible to systems running over it.
type World struct {
	id         uint32
	logger     zerolog.Logger
	allocator  *EntityAllocator
	schema     table.Schema
	entryIndex table.EntryIndex

	nextArchetypeID ArchetypeID
	archetypes      []*Archetype
	archByKey       map[archetypeKey]*Archetype
	entities        map[Entity]location

	resources *Resources

	// iterators counts currently-open Cursors. While it's nonzero,
	// Insert/Delete refuse to run, since either could reallocate or
	// swap-remove a column backing a chunk some Cursor is mid-iteration over.
	iterators int32
}

func newWorld(id uint32, logger zerolog.Logger, allocator *EntityAllocator) *World {
	return &World{
		id:         id,
		logger:     logger,
		allocator:  allocator,
		schema:     table.Factory.NewSchema(),
		entryIndex: table.Factory.NewEntryIndex(),
		archByKey:  make(map[archetypeKey]*Archetype),
		entities:   make(map[Entity]location),
		resources:  newResources(),
	}
}

// ID returns the world's identifier, unique within its Universe.
func (w *World) ID() uint32 { return w.id }

// Resources returns the world's resource table.
func (w *World) Resources() *Resources { return w.resources }

// Archetypes returns every archetype currently holding at least one chunk.
func (w *World) Archetypes() []*Archetype { return w.archetypes }

// IsAlive reports whether e is a currently-live entity in this world.
func (w *World) IsAlive(e Entity) bool { return w.allocator.IsAlive(e) }

func (w *World) locate(e Entity) (location, bool) {
	loc, ok := w.entities[e]
	if !ok || !w.allocator.IsAlive(e) {
		return location{}, false
	}
	return loc, true
}

// Locked reports whether any Cursor is currently iterating this world.
func (w *World) Locked() bool { return atomic.LoadInt32(&w.iterators) > 0 }

// Close releases this world's leased blocks back to its Universe's shared
// BlockAllocator. Go has no destructors, so a World that's done being used
// must be closed explicitly; failing to do so simply leaves its blocks
// leased rather than corrupting anything.
func (w *World) Close() {
	w.logger.Info().Msg("closing world")
	w.allocator.Release()
}

func (w *World) lockForIteration()   { atomic.AddInt32(&w.iterators, 1) }
func (w *World) unlockForIteration() { atomic.AddInt32(&w.iterators, -1) }

// Insert creates n new entities sharing the given component types and
// shared/tag values, returning their handles. Every returned entity starts
// with zero-valued components; set concrete values afterward with each
// ComponentType's Set method, or use InsertFrom when the values are already
// in hand.
func (w *World) Insert(shared SharedSet, n int, components ...anyComponent) ([]Entity, error) {
	if n <= 0 {
		return nil, nil
	}
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	metas := make([]componentMeta, len(components))
	for i, c := range components {
		metas[i] = c.meta()
	}
	arch, err := w.archetypeFor(metas, shared)
	if err != nil {
		return nil, err
	}
	sharedValues := shared.values()

	w.allocator.ClearAllocationBuffer()
	result := make([]Entity, 0, n)
	for i := 0; i < n; i++ {
		e := w.allocator.Allocate()
		chunk, err := arch.chunkFor(sharedValues)
		if err != nil {
			return nil, err
		}
		slot, err := chunk.append(e)
		if err != nil {
			return nil, err
		}
		w.entities[e] = location{archetype: arch, chunk: chunk, slot: slot}
		result = append(result, e)
	}
	w.logger.Debug().Int("count", n).Uint32("archetype", arch.id).Msg("inserted entities")
	return result, nil
}

// Delete removes e from the world, invalidating its handle. Reports whether
// e was alive beforehand. Panics if called while a Cursor is iterating this
// world: an aliasing violation is a programmer error, and Delete has no
// error return to report it through.
func (w *World) Delete(e Entity) bool {
	if w.Locked() {
		panic(bark.AddTrace(LockedWorldError{}))
	}
	loc, ok := w.locate(e)
	if !ok {
		return false
	}
	w.allocator.Delete(e)
	moved, hadMove, err := loc.chunk.swapRemove(loc.slot)
	if err != nil {
		panic(err)
	}
	if hadMove {
		w.entities[moved] = location{archetype: loc.archetype, chunk: loc.chunk, slot: loc.slot}
	}
	delete(w.entities, e)
	return true
}

// InsertFrom is a convenience wrapper over Insert for callers who already
// have their component values in hand rather than wanting to set them after
// the fact. It inserts len(values) entities sharing shared and carrying
// exactly one component, c, then writes values[i] into entity i's copy of c.
func InsertFrom[T any](w *World, shared SharedSet, c *ComponentType[T], values []T) ([]Entity, error) {
	entities, err := w.Insert(shared, len(values), c)
	if err != nil {
		return nil, err
	}
	for i, e := range entities {
		c.Set(w, e, values[i])
	}
	return entities, nil
}

// archetypeFor returns the archetype matching this exact component/shared
// signature, creating it if this is the first time the combination is seen.
func (w *World) archetypeFor(components []componentMeta, shared SharedSet) (*Archetype, error) {
	sharedIDs := shared.ids()
	var key archetypeKey
	probe := newArchetype(w, 0, components, sharedIDs)
	key = probe.key()
	if existing, ok := w.archByKey[key]; ok {
		return existing, nil
	}
	w.nextArchetypeID++
	probe.id = w.nextArchetypeID
	w.archByKey[key] = probe
	w.archetypes = append(w.archetypes, probe)
	w.logger.Debug().
		Uint32("archetype", probe.id).
		Int("components", len(components)).
		Int("shared_types", len(sharedIDs)).
		Msg("allocated archetype")
	return probe, nil
}
