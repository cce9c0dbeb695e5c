package ecs

// entityOperation is one queued structural mutation, applied once its owning
// CommandBuffer is flushed.
type entityOperation interface {
	apply(w *World)
}

type insertOperation struct {
	shared     SharedSet
	count      int
	components []anyComponent
}

func (op insertOperation) apply(w *World) {
	if _, err := w.Insert(op.shared, op.count, op.components...); err != nil {
		w.logger.Error().Err(err).Msg("command buffer insert failed")
	}
}

type deleteOperation struct {
	entity Entity
}

func (op deleteOperation) apply(w *World) {
	w.Delete(op.entity)
}

// CommandBuffer queues the structural mutations a System issues while it
// runs, deferring them until the end of the stage so a system never
// invalidates another system's in-flight iteration. Each system owns exactly
// one buffer; StageExecutor flushes every system's buffer, in the systems'
// declaration order, once the stage completes.
type CommandBuffer struct {
	ops []entityOperation
}

// NewCommandBuffer returns an empty command buffer.
func NewCommandBuffer() *CommandBuffer { return &CommandBuffer{} }

// Insert queues the creation of n entities with the given shared values and
// component types, applied when the buffer is flushed.
func (b *CommandBuffer) Insert(shared SharedSet, n int, components ...anyComponent) {
	b.ops = append(b.ops, insertOperation{shared: shared, count: n, components: components})
}

// Delete queues the destruction of e, applied when the buffer is flushed.
func (b *CommandBuffer) Delete(e Entity) {
	b.ops = append(b.ops, deleteOperation{entity: e})
}

// flush applies every queued operation, in the order they were issued, then
// empties the buffer.
func (b *CommandBuffer) flush(w *World) {
	for _, op := range b.ops {
		op.apply(w)
	}
	b.ops = b.ops[:0]
}
