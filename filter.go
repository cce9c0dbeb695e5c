package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

type filterOp int

const (
	opAnd filterOp = iota
	opOr
	opNot
)

type sharedPredicate struct {
	id           uint32
	value        any
	presenceOnly bool
}

func (p sharedPredicate) matches(c *Chunk) bool {
	v, ok := c.shared[p.id]
	if p.presenceOnly {
		return ok
	}
	return ok && v == p.value
}

// Filter is a composable predicate tree over component presence, shared-type
// presence, and shared values.
//
// Matching happens at two granularities. matchChunk is the exact predicate,
// deciding every axis against a concrete chunk; matchArchetype is a
// conservative prefilter that skips archetypes no chunk of which could
// match, so iteration never has to descend into them. Shared-*value*
// predicates can only be decided per-chunk, since an archetype carrying the
// shared type may hold chunks with any value, so at archetype granularity
// they count as presence requirements under And/Or and are deferred
// entirely under Not.
type Filter struct {
	op               filterOp
	elementTypes     []table.ElementType
	sharedPredicates []sharedPredicate
	children         []Filter
}

// And matches archetypes carrying every named component (and satisfying
// every nested filter). Items may be a *ComponentType[T] or a Filter.
func And(items ...any) Filter { return buildFilter(opAnd, items) }

// Or matches archetypes carrying any named component (or satisfying any
// nested filter).
func Or(items ...any) Filter { return buildFilter(opOr, items) }

// Not matches archetypes carrying none of the named components (and failing
// every nested filter).
func Not(items ...any) Filter { return buildFilter(opNot, items) }

// SharedEquals matches chunks whose shared value for s equals value. It only
// narrows at chunk granularity; at the archetype level it requires only that
// the shared type be present.
func SharedEquals[T comparable](s *SharedType[T], value T) Filter {
	return Filter{sharedPredicates: []sharedPredicate{{id: s.id, value: value}}}
}

// HasShared matches archetypes carrying the shared type s, whatever value
// each chunk holds for it.
func HasShared[T any](s *SharedType[T]) Filter {
	return Filter{sharedPredicates: []sharedPredicate{{id: s.id, presenceOnly: true}}}
}

func buildFilter(op filterOp, items []any) Filter {
	f := Filter{op: op}
	for _, item := range items {
		switch v := item.(type) {
		case anyComponent:
			f.elementTypes = append(f.elementTypes, v.meta().elementType)
		case Filter:
			f.children = append(f.children, v)
		default:
			panic(bark.AddTrace(fmt.Errorf("invalid filter item type: %T", item)))
		}
	}
	return f
}

// archetypeExact reports whether this subtree's archetype-level answer is
// exact rather than a prefilter, i.e. it contains no shared-value
// predicates. Only exact subtrees may be negated at archetype granularity.
func (f Filter) archetypeExact() bool {
	for _, p := range f.sharedPredicates {
		if !p.presenceOnly {
			return false
		}
	}
	for _, c := range f.children {
		if !c.archetypeExact() {
			return false
		}
	}
	return true
}

func (f Filter) componentMask(a *Archetype) mask.Mask {
	var want mask.Mask
	for _, et := range f.elementTypes {
		a.world.schema.Register(et)
		want.Mark(a.world.schema.RowIndexFor(et))
	}
	return want
}

// matchArchetype is the archetype-granularity prefilter: it must pass every
// archetype that could hold a matching chunk, and may pass some that don't.
func (f Filter) matchArchetype(a *Archetype) bool {
	wantComponents := f.componentMask(a)
	var wantShared mask.Mask
	for _, p := range f.sharedPredicates {
		wantShared.Mark(p.id)
	}
	switch f.op {
	case opOr:
		if len(f.elementTypes) > 0 && a.componentMask.ContainsAny(wantComponents) {
			return true
		}
		if len(f.sharedPredicates) > 0 && a.sharedMask.ContainsAny(wantShared) {
			return true
		}
		for _, c := range f.children {
			if c.matchArchetype(a) {
				return true
			}
		}
		return len(f.elementTypes) == 0 && len(f.sharedPredicates) == 0 && len(f.children) == 0
	case opNot:
		if len(f.elementTypes) > 0 && !a.componentMask.ContainsNone(wantComponents) {
			return false
		}
		var wantPresence mask.Mask
		presenceCount := 0
		for _, p := range f.sharedPredicates {
			if p.presenceOnly {
				wantPresence.Mark(p.id)
				presenceCount++
			}
		}
		if presenceCount > 0 && !a.sharedMask.ContainsNone(wantPresence) {
			return false
		}
		for _, c := range f.children {
			if c.archetypeExact() && c.matchArchetype(a) {
				return false
			}
		}
		return true
	default: // opAnd
		if !a.componentMask.ContainsAll(wantComponents) {
			return false
		}
		if !a.sharedMask.ContainsAll(wantShared) {
			return false
		}
		for _, c := range f.children {
			if !c.matchArchetype(a) {
				return false
			}
		}
		return true
	}
}

// matchChunk is the exact predicate: component presence resolves against the
// chunk's archetype, shared values against the chunk itself.
func (f Filter) matchChunk(c *Chunk) bool {
	a := c.archetype
	wantComponents := f.componentMask(a)
	switch f.op {
	case opOr:
		if len(f.elementTypes) > 0 && a.componentMask.ContainsAny(wantComponents) {
			return true
		}
		for _, p := range f.sharedPredicates {
			if p.matches(c) {
				return true
			}
		}
		for _, child := range f.children {
			if child.matchChunk(c) {
				return true
			}
		}
		return len(f.elementTypes) == 0 && len(f.sharedPredicates) == 0 && len(f.children) == 0
	case opNot:
		if len(f.elementTypes) > 0 && !a.componentMask.ContainsNone(wantComponents) {
			return false
		}
		for _, p := range f.sharedPredicates {
			if p.matches(c) {
				return false
			}
		}
		for _, child := range f.children {
			if child.matchChunk(c) {
				return false
			}
		}
		return true
	default: // opAnd
		if !a.componentMask.ContainsAll(wantComponents) {
			return false
		}
		for _, p := range f.sharedPredicates {
			if !p.matches(c) {
				return false
			}
		}
		for _, child := range f.children {
			if !child.matchChunk(c) {
				return false
			}
		}
		return true
	}
}
