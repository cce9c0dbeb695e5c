package ecs

// Cursor iterates the rows matched by a Query, one entity at a time,
// chunk-by-chunk, archetype-by-archetype, with shared-value chunk filtering
// folded into advancing.
type Cursor struct {
	query      *Query
	archetypes []*Archetype
	archIdx    int
	chunkIdx   int
	slotIdx    int
	chunkRef   *Chunk
	released   bool
}

// newCursor takes out the world's iteration lock, enforcing the aliasing
// invariant; see World.Locked. The lock is released once Next reports
// exhaustion, or explicitly via Close for a cursor abandoned early.
func newCursor(q *Query) *Cursor {
	q.world.lockForIteration()
	return &Cursor{query: q, slotIdx: -1, archetypes: q.matchedArchetypes()}
}

// Next advances the cursor to the next matching row and reports whether one
// was found. Call Slot/Chunk/Entity to read the current row.
func (c *Cursor) Next() bool {
	for {
		if c.chunkRef != nil {
			c.slotIdx++
			if c.slotIdx < c.chunkRef.Len() {
				return true
			}
		}
		if !c.advanceChunk() {
			c.Close()
			return false
		}
	}
}

// Close releases this cursor's iteration lock early. Safe to call more than
// once, and safe (though unnecessary) to call after Next has already
// returned false. Callers that break out of a Next loop before exhaustion
// must call Close themselves or the world stays locked against Insert/Delete.
func (c *Cursor) Close() {
	if c.released {
		return
	}
	c.released = true
	c.query.world.unlockForIteration()
}

func (c *Cursor) currentChunks() []*Chunk {
	if c.archIdx >= len(c.archetypes) {
		return nil
	}
	return c.archetypes[c.archIdx].Chunks()
}

// advanceChunk walks forward to the next non-empty chunk that passes the
// query's chunk-level shared-value predicates, possibly crossing into
// subsequent archetypes. Returns false once every archetype is exhausted.
func (c *Cursor) advanceChunk() bool {
	for {
		chunks := c.currentChunks()
		if c.chunkIdx >= len(chunks) {
			c.archIdx++
			c.chunkIdx = 0
			if c.archIdx >= len(c.archetypes) {
				c.chunkRef = nil
				return false
			}
			continue
		}
		chunk := chunks[c.chunkIdx]
		c.chunkIdx++
		if chunk.Len() == 0 {
			continue
		}
		if c.query.hasFilter && !c.query.filter.matchChunk(chunk) {
			continue
		}
		c.chunkRef = chunk
		c.slotIdx = -1
		return true
	}
}

// Slot returns the current row's index within its chunk.
func (c *Cursor) Slot() int { return c.slotIdx }

// Chunk returns the chunk the current row belongs to.
func (c *Cursor) Chunk() *Chunk { return c.chunkRef }

// Entity returns the entity at the current row.
func (c *Cursor) Entity() Entity { return c.chunkRef.entities[c.slotIdx] }
