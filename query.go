package ecs

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

// Query is a View bound to a World, optionally narrowed with Filters. It is
// produced by View.Query and consumed by IntoCursor, IntoData,
// IntoDataWithEntities, or IntoChunks.
type Query struct {
	world     *World
	view      *View
	filter    Filter
	hasFilter bool
}

// World returns the world this query is bound to.
func (q *Query) World() *World { return q.world }

// View returns the view this query was built from.
func (q *Query) View() *View { return q.view }

// IntoCursor starts iteration over every row matching this query. Callers
// driving a Cursor by hand rather than through a range-over-func sequence
// must call Close once done, or call Next to exhaustion.
func (q *Query) IntoCursor() *Cursor {
	return newCursor(q)
}

// IntoData ranges over every row matching the query, one slot at a time
// across all matching chunks. Read or write the row's columns through
// ComponentType.GetFromCursor against the yielded Cursor. The world's
// iteration lock is held while the sequence is driven and released once the
// range loop exits, whether by exhaustion or an early break: range-over-func
// guarantees the loop body after the break-triggered false yield still runs,
// so the deferred release always fires.
func (q *Query) IntoData() iter.Seq[*Cursor] {
	return func(yield func(*Cursor) bool) {
		cur := newCursor(q)
		defer cur.Close()
		for cur.Next() {
			if !yield(cur) {
				return
			}
		}
	}
}

// IntoDataWithEntities is IntoData with each row's Entity handle paired
// alongside the Cursor, for callers that need the identity of the row they're
// touching (e.g. to queue a command-buffer operation against it) rather than
// just its component values.
func (q *Query) IntoDataWithEntities() iter.Seq2[Entity, *Cursor] {
	return func(yield func(Entity, *Cursor) bool) {
		cur := newCursor(q)
		defer cur.Close()
		for cur.Next() {
			if !yield(cur.Entity(), cur) {
				return
			}
		}
	}
}

// ChunkView is one chunk matching a Query, the batch granularity a caller
// fans out across its own worker pool for parallel iteration instead of
// walking rows one at a time through a Cursor.
type ChunkView struct {
	chunk *Chunk
}

// Chunk returns the underlying chunk.
func (cv ChunkView) Chunk() *Chunk { return cv.chunk }

// Len returns the chunk's occupancy.
func (cv ChunkView) Len() int { return cv.chunk.Len() }

// IntoChunks ranges over every chunk matching the query, in iteration order,
// without flattening to per-slot rows. Each ChunkView's underlying Chunk
// exposes its full entity list and, through each ComponentType's
// GetFromChunk, its columns, enough for a caller to hand whole chunks to a
// worker pool itself, the same shape StageExecutor already uses internally
// for systems. The world's iteration lock follows the same hold/release
// rule as IntoData.
func (q *Query) IntoChunks() iter.Seq[ChunkView] {
	return func(yield func(ChunkView) bool) {
		q.world.lockForIteration()
		defer q.world.unlockForIteration()
		for _, a := range q.matchedArchetypes() {
			for _, c := range a.Chunks() {
				if c.Len() == 0 {
					continue
				}
				if q.hasFilter && !q.filter.matchChunk(c) {
					continue
				}
				if !yield(ChunkView{chunk: c}) {
					return
				}
			}
		}
	}
}

// ForEachChunkParallel visits every chunk matching the query from a bounded
// worker pool sized by Config, one fn call per chunk. Two calls never receive
// the same chunk, so fn may freely mutate the columns of the chunk it was
// handed. The world's iteration lock is held until every worker returns; the
// first non-nil error cancels the remaining visits and is returned.
func (q *Query) ForEachChunkParallel(ctx context.Context, fn func(ChunkView) error) error {
	q.world.lockForIteration()
	defer q.world.unlockForIteration()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(Config.workerCount)
	for _, a := range q.matchedArchetypes() {
		for _, c := range a.Chunks() {
			if c.Len() == 0 {
				continue
			}
			if q.hasFilter && !q.filter.matchChunk(c) {
				continue
			}
			cv := ChunkView{chunk: c}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return fn(cv)
			})
		}
	}
	return g.Wait()
}

// Count returns the number of rows this query currently matches, without
// requiring the caller to drive a Cursor to exhaustion.
func (q *Query) Count() int {
	n := 0
	cur := q.IntoCursor()
	for cur.Next() {
		n++
	}
	return n
}

// matchedArchetypes returns every archetype this query's view and filters
// currently accept. Shared by Cursor construction, IntoChunks, and
// System.Prepare, which uses it to compute the archetype set the scheduler
// refines dynamic dependencies against.
func (q *Query) matchedArchetypes() []*Archetype {
	required := q.view.requiredMask(q.world.schema)
	var out []*Archetype
	for _, a := range q.world.archetypes {
		if !a.componentMask.ContainsAll(required) {
			continue
		}
		if q.hasFilter && !q.filter.matchArchetype(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}
