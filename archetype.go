package ecs

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// componentMeta pairs a component's table.ElementType identity with the
// in-memory size of one value, recovered from the generic T a ComponentType[T]
// was built from (table.ElementType itself exposes no size).
type componentMeta struct {
	elementType table.ElementType
	size        int
}

// ArchetypeID is a stable, per-World identifier for an archetype.
type ArchetypeID = uint32

// archetypeKey identifies an archetype by its full signature: the set of
// per-entity component types plus the set of shared/tag types. Two entities
// belong to the same archetype iff both masks match; differing shared values
// only put them in different chunks of that archetype.
type archetypeKey struct {
	components mask.Mask
	shared     mask.Mask
}

// Archetype groups every entity sharing one exact component-type signature
// into a list of fixed-capacity Chunks, one table.Table per chunk rather
// than one per archetype so a distinct shared-value tuple can live in its
// own chunk within the same archetype.
type Archetype struct {
	id             ArchetypeID
	world          *World
	componentTypes []table.ElementType
	componentMask  mask.Mask
	sharedTypes    []uint32
	sharedMask     mask.Mask
	chunkCapacity  int
	chunks         []*Chunk
}

func newArchetype(w *World, id ArchetypeID, components []componentMeta, sharedTypes []uint32) *Archetype {
	componentTypes := make([]table.ElementType, len(components))
	var compMask mask.Mask
	for i, c := range components {
		w.schema.Register(c.elementType)
		compMask.Mark(w.schema.RowIndexFor(c.elementType))
		componentTypes[i] = c.elementType
	}
	var sharedMask mask.Mask
	for _, id := range sharedTypes {
		sharedMask.Mark(id)
	}
	return &Archetype{
		id:             id,
		world:          w,
		componentTypes: componentTypes,
		componentMask:  compMask,
		sharedTypes:    sharedTypes,
		sharedMask:     sharedMask,
		chunkCapacity:  chunkCapacityFor(components),
	}
}

// ID returns the archetype's identifier.
func (a *Archetype) ID() ArchetypeID { return a.id }

// Len returns the total number of live entities across every chunk.
func (a *Archetype) Len() int {
	n := 0
	for _, c := range a.chunks {
		n += c.Len()
	}
	return n
}

// Chunks returns the archetype's chunk list.
func (a *Archetype) Chunks() []*Chunk { return a.chunks }

func (a *Archetype) key() archetypeKey {
	return archetypeKey{components: a.componentMask, shared: a.sharedMask}
}

func (a *Archetype) hasComponent(et table.ElementType) bool {
	a.world.schema.Register(et)
	var want mask.Mask
	want.Mark(a.world.schema.RowIndexFor(et))
	return a.componentMask.ContainsAll(want)
}

// chunkFor returns a non-full chunk carrying exactly sharedValues, creating a
// new one if none exists yet. Shared/tag values never change after a chunk is
// created. Several chunks may carry the same values once earlier ones fill
// up; the first non-full one in chunk order is returned.
func (a *Archetype) chunkFor(sharedValues map[uint32]any) (*Chunk, error) {
	for _, c := range a.chunks {
		if !c.IsFull() && c.sharedValuesMatch(sharedValues) {
			return c, nil
		}
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(a.world.schema).
		WithEntryIndex(a.world.entryIndex).
		WithElementTypes(a.componentTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return nil, err
	}
	c := newChunk(a, tbl, sharedValues, a.chunkCapacity)
	a.chunks = append(a.chunks, c)
	a.world.logger.Trace().
		Uint32("archetype", a.id).
		Int("chunk", len(a.chunks)-1).
		Int("capacity", a.chunkCapacity).
		Msg("allocated chunk")
	return c, nil
}

// chunkCapacityFor computes how many rows of components fit within the
// configured page-size budget. Falls back to a capacity of 1 for component
// sets wider than the budget, which keeps the structure sound if never
// cache-optimal.
func chunkCapacityFor(components []componentMeta) int {
	rowBytes := 0
	for _, c := range components {
		rowBytes += c.size
	}
	if rowBytes <= 0 {
		return Config.chunkBytesTarget
	}
	if cap := Config.chunkBytesTarget / rowBytes; cap > 0 {
		return cap
	}
	return 1
}
