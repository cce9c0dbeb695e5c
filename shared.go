package ecs

import (
	"reflect"

	"github.com/TheBitDrifter/bark"
)

// SharedType[T] is a value constant for every entity within one chunk: a
// tag or per-chunk configuration value. Shared types carry no per-entity
// column, so their identities come from their own registry rather than the
// component schema.
type SharedType[T any] struct {
	id uint32
}

// NewShared declares a new shared/tag type. Like NewComponent, call it once
// per type and reuse the handle.
func NewShared[T any]() *SharedType[T] {
	return &SharedType[T]{id: globalSharedTypes.idFor(reflect.TypeFor[T]())}
}

// Value returns chunk's constant value for this shared type. Panics if the
// chunk's archetype doesn't carry it; callers are expected to have matched
// on it via a Filter first.
func (s *SharedType[T]) Value(chunk *Chunk) T {
	v, ok := chunk.shared[s.id]
	if !ok {
		panic(bark.AddTrace(ArchetypeMismatchError{
			Archetype: chunk.archetype.id,
			Type:      globalSharedTypes.typeFor(s.id).String(),
		}))
	}
	return v.(T)
}

// Has reports whether chunk's archetype carries this shared type.
func (s *SharedType[T]) Has(chunk *Chunk) bool {
	_, ok := chunk.shared[s.id]
	return ok
}

// Get returns the chunk-constant value e shares, or (zero, false) if e is
// dead or its archetype doesn't carry this shared type.
func (s *SharedType[T]) Get(w *World, e Entity) (T, bool) {
	var zero T
	loc, ok := w.locate(e)
	if !ok {
		return zero, false
	}
	v, ok := loc.chunk.shared[s.id]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// sharedAssignment pairs one shared type's id with a concrete value, produced
// by Shared(...) and consumed by World.Insert.
type sharedAssignment struct {
	id    uint32
	value any
}

// SharedSet is the shared/tag portion of a World.Insert call: the fixed
// tuple of values every entity created by that call will carry for the
// lifetime of the chunk they land in.
type SharedSet struct {
	assignments []sharedAssignment
}

// NoShared is the empty SharedSet, for entities with no shared/tag data.
var NoShared = SharedSet{}

// SharedValue builds one assignment for a SharedSet. Use it with Shared:
//
//	ecs.Shared(ecs.SharedValue(teamTag, Team{Name: "red"}))
func SharedValue[T any](s *SharedType[T], value T) sharedAssignment {
	return sharedAssignment{id: s.id, value: value}
}

// Shared composes one or more SharedValue results into a SharedSet.
func Shared(assignments ...sharedAssignment) SharedSet {
	return SharedSet{assignments: assignments}
}

func (s SharedSet) ids() []uint32 {
	ids := make([]uint32, len(s.assignments))
	for i, a := range s.assignments {
		ids[i] = a.id
	}
	return ids
}

func (s SharedSet) values() map[uint32]any {
	values := make(map[uint32]any, len(s.assignments))
	for _, a := range s.assignments {
		values[a.id] = a.value
	}
	return values
}
