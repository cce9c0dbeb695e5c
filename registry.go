package ecs

import (
	"reflect"
	"sync"
)

// sharedTypeRegistry hands out a stable, process-lifetime-unique small integer
// per distinct shared/tag type, the same way a schema hands out a stable row
// index per registered per-entity component type. Shared/tag types carry no
// per-entity column at all, so they need their own identity space; archetype
// shared-type signatures are built from these ids.
type sharedTypeRegistry struct {
	mu    sync.Mutex
	ids   map[reflect.Type]uint32
	types []reflect.Type
}

var globalSharedTypes = &sharedTypeRegistry{
	ids: make(map[reflect.Type]uint32),
}

// idFor returns the stable bit index for t, registering it on first use.
func (r *sharedTypeRegistry) idFor(t reflect.Type) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := uint32(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

func (r *sharedTypeRegistry) typeFor(id uint32) reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.types[id]
}
