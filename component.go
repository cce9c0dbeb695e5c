package ecs

import (
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// anyComponent lets World.Insert and the view/filter builders accept a
// ComponentType[T] for any T uniformly.
type anyComponent interface {
	meta() componentMeta
}

// ComponentType[T] is a per-entity attribute of type T. It is the handle used
// to insert, read, and mutate a component's values across a World, pairing a
// table.ElementType identity with its typed accessor.
type ComponentType[T any] struct {
	elementType table.ElementType
	accessor    table.Accessor[T]
	size        int
}

// NewComponent declares a new per-entity component type. Call it once per
// type, typically at package scope, and share the resulting handle across
// every World that uses it.
func NewComponent[T any]() *ComponentType[T] {
	et := table.FactoryNewElementType[T]()
	return &ComponentType[T]{
		elementType: et,
		accessor:    table.FactoryNewAccessor[T](et),
		size:        int(reflect.TypeFor[T]().Size()),
	}
}

func (c *ComponentType[T]) meta() componentMeta {
	return componentMeta{elementType: c.elementType, size: c.size}
}

// ElementType exposes the underlying table.ElementType identity, needed when
// composing queries against the raw table/mask machinery.
func (c *ComponentType[T]) ElementType() table.ElementType { return c.elementType }

// Get returns a pointer to e's value of this component, or (nil, false) if e
// is dead or its archetype doesn't carry this component.
func (c *ComponentType[T]) Get(w *World, e Entity) (*T, bool) {
	loc, ok := w.locate(e)
	if !ok || !loc.chunk.hasComponent(c.elementType) {
		return nil, false
	}
	return c.accessor.Get(loc.slot, loc.chunk.table), true
}

// Set writes v into e's value of this component. Reports whether e was alive
// and carried the component.
func (c *ComponentType[T]) Set(w *World, e Entity, v T) bool {
	ptr, ok := c.Get(w, e)
	if !ok {
		return false
	}
	*ptr = v
	return true
}

// Has reports whether e's archetype carries this component.
func (c *ComponentType[T]) Has(w *World, e Entity) bool {
	loc, ok := w.locate(e)
	return ok && loc.chunk.hasComponent(c.elementType)
}

// GetFromChunk returns a pointer to the value at slot within chunk, without
// going through a World/Entity lookup. Query iteration uses this directly,
// one indexed accessor call per visited row. Panics if chunk's archetype
// doesn't carry this component at all.
func (c *ComponentType[T]) GetFromChunk(chunk *Chunk, slot int) *T {
	if !c.accessor.Check(chunk.table) {
		panic(bark.AddTrace(ComponentNotFoundError{Type: reflect.TypeFor[T]().String()}))
	}
	return c.accessor.Get(slot, chunk.table)
}

// GetFromCursor returns a pointer to the current row's value of this
// component.
func (c *ComponentType[T]) GetFromCursor(cur *Cursor) *T {
	return c.GetFromChunk(cur.Chunk(), cur.Slot())
}

// CheckChunk reports whether chunk carries this component at all.
func (c *ComponentType[T]) CheckChunk(chunk *Chunk) bool {
	return c.accessor.Check(chunk.table)
}
