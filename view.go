package ecs

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

type accessMode int

const (
	modeRead accessMode = iota
	modeWrite
)

// viewElement names one column a View touches and whether it may be
// mutated. Go has no variadic generics, so a View is built from a runtime
// list of these rather than a compile-time tuple type, trading a small
// dispatch cost for (TypeId, mode) pairs at runtime.
type viewElement struct {
	elementType table.ElementType
	mode        accessMode
}

// Read declares a read-only view of a component column.
func Read[T any](c *ComponentType[T]) viewElement {
	return viewElement{elementType: c.elementType, mode: modeRead}
}

// Write declares a mutable view of a component column.
func Write[T any](c *ComponentType[T]) viewElement {
	return viewElement{elementType: c.elementType, mode: modeWrite}
}

// View is the set of component columns a query binds against a World. Every
// element implicitly requires its component to be present; use a Filter to
// add further archetype- or chunk-level predicates.
type View struct {
	elements []viewElement
}

// NewView builds a View from Read/Write elements.
func NewView(elements ...viewElement) *View {
	return &View{elements: elements}
}

// HasWrite reports whether any element of the view is mutable.
func (v *View) HasWrite() bool {
	for _, e := range v.elements {
		if e.mode == modeWrite {
			return true
		}
	}
	return false
}

// ElementTypes returns the component types this view touches.
func (v *View) ElementTypes() []table.ElementType {
	ets := make([]table.ElementType, len(v.elements))
	for i, e := range v.elements {
		ets[i] = e.elementType
	}
	return ets
}

// ReadElementTypes returns the component types this view reads, whether or
// not it also writes others; a mixed view's Read elements never get folded
// into its Write set or vice versa.
func (v *View) ReadElementTypes() []table.ElementType {
	var ets []table.ElementType
	for _, e := range v.elements {
		if e.mode == modeRead {
			ets = append(ets, e.elementType)
		}
	}
	return ets
}

// WriteElementTypes returns the component types this view writes.
func (v *View) WriteElementTypes() []table.ElementType {
	var ets []table.ElementType
	for _, e := range v.elements {
		if e.mode == modeWrite {
			ets = append(ets, e.elementType)
		}
	}
	return ets
}

func (v *View) requiredMask(schema table.Schema) mask.Mask {
	var m mask.Mask
	for _, e := range v.elements {
		schema.Register(e.elementType)
		m.Mark(schema.RowIndexFor(e.elementType))
	}
	return m
}

// Query binds this view to a world, optionally narrowed by filters. Every
// filter is combined with AND.
func (v *View) Query(w *World, filters ...Filter) *Query {
	q := &Query{world: w, view: v}
	if len(filters) > 0 {
		q.filter = Filter{op: opAnd, children: filters}
		q.hasFilter = true
	}
	return q
}
