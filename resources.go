package ecs

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
)

// resourceCell holds one boxed resource value plus a borrow counter enforcing
// the same aliasing rule as component views: any number of concurrent
// readers, or exactly one writer, never both, enforced at runtime with an
// atomic counter.
type resourceCell struct {
	value   any // always a *T for the resource's concrete T
	borrows atomic.Int32
}

// acquireRead succeeds unless a writer currently holds the cell (borrows < 0).
func (c *resourceCell) acquireRead() bool {
	for {
		cur := c.borrows.Load()
		if cur < 0 {
			return false
		}
		if c.borrows.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (c *resourceCell) releaseRead() { c.borrows.Add(-1) }

// acquireWrite succeeds only when the cell is completely unborrowed.
func (c *resourceCell) acquireWrite() bool {
	return c.borrows.CompareAndSwap(0, -1)
}

func (c *resourceCell) releaseWrite() { c.borrows.Store(0) }

// Resources is a World's typed singleton store: at most one value per Go
// type, looked up by reflect.Type the way delaneyj-arche's resources.go
// registry does, but guarded by the borrow-counter above instead of a bare
// map access.
type Resources struct {
	mu    sync.RWMutex
	cells map[reflect.Type]*resourceCell
}

func newResources() *Resources {
	return &Resources{cells: make(map[reflect.Type]*resourceCell)}
}

// InsertResource installs value as the world's singleton instance of T,
// replacing any previous one.
func InsertResource[T any](r *Resources, value T) {
	boxed := new(T)
	*boxed = value
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cells[reflect.TypeFor[T]()] = &resourceCell{value: boxed}
}

// RemoveResource deletes the world's singleton instance of T, if any.
func RemoveResource[T any](r *Resources) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cells, reflect.TypeFor[T]())
}

func (r *Resources) cellFor(t reflect.Type) (*resourceCell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cells[t]
	return c, ok
}

// ReadResource returns a read-only guard over T's singleton instance. The
// guard's Release must be called when done; ok is false if no instance of T
// has been inserted, or if a writer currently holds it.
func ReadResource[T any](r *Resources) (ResourceReadGuard[T], bool) {
	cell, ok := r.cellFor(reflect.TypeFor[T]())
	if !ok || !cell.acquireRead() {
		return ResourceReadGuard[T]{}, false
	}
	return ResourceReadGuard[T]{cell: cell}, true
}

// WriteResource returns an exclusive guard over T's singleton instance. The
// guard's Release must be called when done.
func WriteResource[T any](r *Resources) (ResourceWriteGuard[T], bool) {
	cell, ok := r.cellFor(reflect.TypeFor[T]())
	if !ok || !cell.acquireWrite() {
		return ResourceWriteGuard[T]{}, false
	}
	return ResourceWriteGuard[T]{cell: cell}, true
}

// ResourceReadGuard is a released-on-demand shared borrow of a resource.
type ResourceReadGuard[T any] struct {
	cell *resourceCell
}

// Value returns the resource's current value.
func (g ResourceReadGuard[T]) Value() T { return *g.cell.value.(*T) }

// Release gives up this guard's read borrow.
func (g ResourceReadGuard[T]) Release() { g.cell.releaseRead() }

// ResourceWriteGuard is a released-on-demand exclusive borrow of a resource.
type ResourceWriteGuard[T any] struct {
	cell *resourceCell
}

// Value returns a pointer to the resource, usable to mutate it in place.
func (g ResourceWriteGuard[T]) Value() *T { return g.cell.value.(*T) }

// Release gives up this guard's write borrow.
func (g ResourceWriteGuard[T]) Release() { g.cell.releaseWrite() }

// ResourceGuard is the type-erased shape both guard kinds satisfy, letting a
// ResourceSet return a heterogeneous tuple of guards as a plain slice: Go has
// no variadic generics, so the compile-time tuple becomes a runtime list at a
// small dispatch cost, the same tradeoff View makes for view elements.
type ResourceGuard interface {
	Release()
}

// resourceAccess is one ResourceSet entry: a resource type plus which mode it
// is acquired in, carrying its own type-correct acquire closure so ResourceSet
// itself stays non-generic.
type resourceAccess struct {
	typ     reflect.Type
	mode    accessMode
	acquire func(r *Resources) (ResourceGuard, bool)
}

// ReadRes declares a ResourceSet entry reading T.
func ReadRes[T any]() resourceAccess {
	return resourceAccess{
		typ:  reflect.TypeFor[T](),
		mode: modeRead,
		acquire: func(r *Resources) (ResourceGuard, bool) {
			g, ok := ReadResource[T](r)
			return g, ok
		},
	}
}

// WriteRes declares a ResourceSet entry writing T.
func WriteRes[T any]() resourceAccess {
	return resourceAccess{
		typ:  reflect.TypeFor[T](),
		mode: modeWrite,
		acquire: func(r *Resources) (ResourceGuard, bool) {
			g, ok := WriteResource[T](r)
			return g, ok
		},
	}
}

// ResourceSet is a compile-time-flavored tuple of Read/Write resource
// descriptors. Its Fetch acquires every declared resource against a World's
// Resources in declaration order.
type ResourceSet struct {
	accesses []resourceAccess
}

// NewResourceSet builds a ResourceSet from ReadRes/WriteRes entries.
func NewResourceSet(accesses ...resourceAccess) ResourceSet {
	return ResourceSet{accesses: accesses}
}

// Reads returns the resource types this set declares as read-only.
func (rs ResourceSet) Reads() []reflect.Type {
	var out []reflect.Type
	for _, a := range rs.accesses {
		if a.mode == modeRead {
			out = append(out, a.typ)
		}
	}
	return out
}

// Writes returns the resource types this set declares as exclusive.
func (rs ResourceSet) Writes() []reflect.Type {
	var out []reflect.Type
	for _, a := range rs.accesses {
		if a.mode == modeWrite {
			out = append(out, a.typ)
		}
	}
	return out
}

// Fetch acquires a guard for every entry of the set, in declaration order.
// Any failed acquisition (e.g. two concurrent fetches over the same T with
// conflicting modes) releases whatever this call already holds and panics,
// rather than returning a partial tuple.
func (rs ResourceSet) Fetch(r *Resources) []ResourceGuard {
	guards := make([]ResourceGuard, len(rs.accesses))
	for i, a := range rs.accesses {
		g, ok := a.acquire(r)
		if !ok {
			for _, held := range guards[:i] {
				held.Release()
			}
			panic(bark.AddTrace(ResourceNotFoundError{Type: a.typ.String()}))
		}
		guards[i] = g
	}
	return guards
}
