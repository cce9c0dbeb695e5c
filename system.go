package ecs

import (
	"reflect"

	"github.com/TheBitDrifter/table"
)

// Access records the set of types a System reads and the set it writes, used
// by the scheduler to build its dependency graph. Reads and Writes are
// tracked independently for resources and components, so a system that
// writes one component and merely reads another never gets its reader
// conflated with its writer when the scheduler decides what may run
// concurrently.
type Access[T any] struct {
	Reads  []T
	Writes []T
}

// System is one schedulable unit of work bound to a set of queries.
type System interface {
	// Name identifies the system in logs and panic reports.
	Name() string
	// ResourceAccess declares which resource types this system reads/writes.
	ResourceAccess() Access[reflect.Type]
	// ComponentAccess declares which component types this system reads/writes.
	ComponentAccess() Access[table.ElementType]
	// Prepare runs this system's archetype filters against w, so the
	// scheduler can compute dynamic dependencies before any system's Run is
	// invoked, refining a provisional component-level conflict down to
	// whether the two systems' matched archetypes actually overlap.
	Prepare(w *World)
	// AccessesArchetypes returns the archetype set computed by the most
	// recent Prepare.
	AccessesArchetypes() archetypeSet
	// Run executes the system's logic. Structural mutations must go through
	// cb rather than directly calling World.Insert/Delete, so they land only
	// once the stage finishes.
	Run(w *World, cb *CommandBuffer)
}

// archetypeSet is an unordered set of archetype IDs. A plain map rather than
// a fixed-width bitset, since an archetype ID is a world-lifetime counter
// with no natural upper bound (unlike a component-type bitset).
type archetypeSet map[ArchetypeID]struct{}

func (s archetypeSet) intersects(other archetypeSet) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for id := range small {
		if _, ok := big[id]; ok {
			return true
		}
	}
	return false
}

// FuncSystem is a System built from plain values and a closure, the
// ergonomic default for declaring systems without a bespoke type per system.
type FuncSystem struct {
	name       string
	resources  Access[reflect.Type]
	components Access[table.ElementType]
	queries    []*Query
	fn         func(w *World, cb *CommandBuffer)
	archetypes archetypeSet
}

// NewSystem builds a System named name. resources and components declare the
// system's reads/writes for scheduling purposes; queries are the views the
// system will iterate inside fn (used only to compute dynamic dependencies;
// fn is free to build and run its own queries too, but anything not listed
// here and in resources/components won't be accounted for when the
// scheduler decides what may run concurrently).
func NewSystem(
	name string,
	resources Access[reflect.Type],
	components Access[table.ElementType],
	queries []*Query,
	fn func(w *World, cb *CommandBuffer),
) *FuncSystem {
	return &FuncSystem{
		name:       name,
		resources:  resources,
		components: components,
		queries:    queries,
		fn:         fn,
	}
}

func (s *FuncSystem) Name() string { return s.name }

func (s *FuncSystem) ResourceAccess() Access[reflect.Type] { return s.resources }

func (s *FuncSystem) ComponentAccess() Access[table.ElementType] { return s.components }

func (s *FuncSystem) Prepare(w *World) {
	set := make(archetypeSet)
	for _, q := range s.queries {
		for _, a := range q.matchedArchetypes() {
			set[a.ID()] = struct{}{}
		}
	}
	s.archetypes = set
}

func (s *FuncSystem) AccessesArchetypes() archetypeSet { return s.archetypes }

func (s *FuncSystem) Run(w *World, cb *CommandBuffer) { s.fn(w, cb) }

// SystemBuilder assembles a System's declared accesses incrementally:
// NewSystemBuilder(name).WithQuery(...).Build(closure), with resource
// declarations threaded through package-level generic functions since Go
// methods can't carry their own type parameters.
type SystemBuilder struct {
	name       string
	resources  Access[reflect.Type]
	components Access[table.ElementType]
	queries    []*Query
}

// NewSystemBuilder starts building a system named name.
func NewSystemBuilder(name string) *SystemBuilder {
	return &SystemBuilder{name: name}
}

// WithQuery registers q as one of the system's cached queries, folding its
// view's element types into the builder's declared component accesses. A
// view's Read and Write elements are kept independent here: a mixed view
// like NewView(Write(position), Read(velocity)) must record position as
// written and velocity as merely read, not bucket the whole view under
// whichever mode happens to be present, since the scheduler's dependency
// graph is built per component type.
func (b *SystemBuilder) WithQuery(q *Query) *SystemBuilder {
	b.queries = append(b.queries, q)
	b.components.Reads = append(b.components.Reads, q.View().ReadElementTypes()...)
	b.components.Writes = append(b.components.Writes, q.View().WriteElementTypes()...)
	return b
}

// Build finalizes the system with fn as its body.
func (b *SystemBuilder) Build(fn func(w *World, cb *CommandBuffer)) *FuncSystem {
	return NewSystem(b.name, b.resources, b.components, b.queries, fn)
}

// SystemReadsResource declares that the system under construction reads T.
func SystemReadsResource[T any](b *SystemBuilder) *SystemBuilder {
	b.resources.Reads = append(b.resources.Reads, reflect.TypeFor[T]())
	return b
}

// SystemWritesResource declares that the system under construction writes T.
func SystemWritesResource[T any](b *SystemBuilder) *SystemBuilder {
	b.resources.Writes = append(b.resources.Writes, reflect.TypeFor[T]())
	return b
}
