package ecs

import "github.com/TheBitDrifter/table"

// defaultChunkBytesTarget is the page-sized footprint a chunk's columns aim
// to fit within.
const defaultChunkBytesTarget = 16 * 1024

// defaultWorkerCount is used by NewStageExecutor and
// Query.ForEachChunkParallel when the caller doesn't request a specific pool
// size.
const defaultWorkerCount = 4

// Config holds process-wide configuration for the store and scheduler.
var Config config = config{
	chunkBytesTarget: defaultChunkBytesTarget,
	workerCount:      defaultWorkerCount,
}

type config struct {
	tableEvents      table.TableEvents
	chunkBytesTarget int
	workerCount      int
}

// SetTableEvents configures the table event callbacks used for every chunk's
// underlying table.Table.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

// SetChunkBytesTarget changes the page-size budget chunk capacities are
// computed against. Must be called before any archetypes are created to take
// effect on them.
func (c *config) SetChunkBytesTarget(bytes int) {
	if bytes <= 0 {
		return
	}
	c.chunkBytesTarget = bytes
}

// SetWorkerCount changes the pool size used by StageExecutors created with
// NewStageExecutor after this call, and by later ForEachChunkParallel calls.
func (c *config) SetWorkerCount(n int) {
	if n <= 0 {
		return
	}
	c.workerCount = n
}
