package ecs

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StageExecutor runs a fixed list of systems belonging to one stage,
// building a dependency graph from their declared resource/component access
// so independent systems run concurrently while a system touching what an
// earlier system writes waits for it, in declaration order. The worker pool
// is an errgroup.Group bounded with SetLimit.
type StageExecutor struct {
	systems []System
	workers int
	logger  zerolog.Logger

	staticDependants  [][]int
	dynamicDependants [][]int
	staticDepCounts   []int32

	runningMu sync.Mutex
	running   mask.Mask256
}

// NewStageExecutor builds an executor for systems, in the order their
// side-effects should be observed when dependencies force serialization.
func NewStageExecutor(logger zerolog.Logger, systems []System) *StageExecutor {
	return newStageExecutor(logger, systems, Config.workerCount)
}

// NewStageExecutorWithWorkers is NewStageExecutor with an explicit pool size
// instead of Config's default.
func NewStageExecutorWithWorkers(logger zerolog.Logger, systems []System, workers int) *StageExecutor {
	return newStageExecutor(logger, systems, workers)
}

func newStageExecutor(logger zerolog.Logger, systems []System, workers int) *StageExecutor {
	if workers <= 0 {
		workers = 1
	}
	e := &StageExecutor{systems: systems, workers: workers, logger: logger}
	if len(systems) > 1 {
		e.buildDependencyGraph()
	}
	return e
}

// buildDependencyGraph computes, for every system, which earlier systems it
// would need to wait for: the most recent earlier writer of each resource it
// reads or writes, and every earlier writer of each component it reads or
// writes. An earlier system that only reads what a later one writes adds no
// edge. Resource edges are always static (an exact TypeId match); component
// edges start out "dynamic" and are only promoted to static once Execute
// knows which archetypes each system actually touches.
func (e *StageExecutor) buildDependencyGraph() {
	n := len(e.systems)
	e.staticDependants = make([][]int, n)
	e.dynamicDependants = make([][]int, n)
	e.staticDepCounts = make([]int32, n)

	resourceLastMutated := make(map[reflect.Type]int)
	componentMutated := make(map[table.ElementType][]int)

	for i, sys := range e.systems {
		resAccess := sys.ResourceAccess()
		compAccess := sys.ComponentAccess()

		deps := make(map[int]struct{})
		for _, res := range resAccess.Reads {
			if n, ok := resourceLastMutated[res]; ok {
				deps[n] = struct{}{}
			}
		}
		for _, res := range resAccess.Writes {
			if n, ok := resourceLastMutated[res]; ok {
				deps[n] = struct{}{}
			}
			resourceLastMutated[res] = i
		}
		e.staticDepCounts[i] = int32(len(deps))
		for dep := range deps {
			e.staticDependants[dep] = append(e.staticDependants[dep], i)
		}

		compDeps := make(map[int]struct{})
		for _, c := range compAccess.Reads {
			for _, n := range componentMutated[c] {
				compDeps[n] = struct{}{}
			}
		}
		for _, c := range compAccess.Writes {
			for _, n := range componentMutated[c] {
				compDeps[n] = struct{}{}
			}
			componentMutated[c] = append(componentMutated[c], i)
		}
		for dep := range compDeps {
			e.dynamicDependants[dep] = append(e.dynamicDependants[dep], i)
		}
	}
}

// Execute runs every system in this stage against w, then flushes each
// system's command buffer in declaration order.
func (e *StageExecutor) Execute(ctx context.Context, w *World) error {
	n := len(e.systems)
	if n == 0 {
		return nil
	}
	buffers := make([]*CommandBuffer, n)
	for i := range buffers {
		buffers[i] = NewCommandBuffer()
	}

	var err error
	if n == 1 {
		err = e.runOne(0, w, buffers[0])
	} else {
		err = e.executeMany(ctx, w, buffers)
	}
	if err != nil {
		return err
	}
	for _, b := range buffers {
		b.flush(w)
	}
	return nil
}

func (e *StageExecutor) executeMany(ctx context.Context, w *World, buffers []*CommandBuffer) error {
	n := len(e.systems)

	// Prepare runs on the calling goroutine: it re-filters each system's
	// queries against the current world, and query matching registers any
	// still-unseen element types with the world's schema, which is only safe
	// while nothing else touches it.
	for _, sys := range e.systems {
		sys.Prepare(w)
	}

	// Dependant lists get a per-Execute copy before the refinement below
	// appends promoted edges. The three-index slice pins each row's capacity
	// to its length, so an append always reallocates instead of scribbling
	// over the prebuilt graph shared by every Execute call.
	staticDependants := make([][]int, n)
	for i, deps := range e.staticDependants {
		staticDependants[i] = deps[:len(deps):len(deps)]
	}
	awaiting := make([]int32, n)
	copy(awaiting, e.staticDepCounts)

	// Promote a provisional component edge to a real one only when the two
	// systems' prepared archetype sets actually intersect.
	for i := 0; i < n; i++ {
		deps := e.dynamicDependants[i]
		if len(deps) == 0 {
			continue
		}
		accesses := e.systems[i].AccessesArchetypes()
		for _, dependant := range deps {
			if e.systems[dependant].AccessesArchetypes().intersects(accesses) {
				staticDependants[i] = append(staticDependants[i], dependant)
				awaiting[dependant]++
			}
		}
	}

	run, runCtx := errgroup.WithContext(ctx)
	run.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if atomic.LoadInt32(&awaiting[i]) == 0 {
			i := i
			run.Go(func() error {
				return e.runRecursive(runCtx, run, i, w, buffers, staticDependants, awaiting)
			})
		}
	}
	return run.Wait()
}

// runRecursive executes system i, then cascades into every dependant whose
// last outstanding dependency was this system, exhausting the whole
// dependency graph depth-first within the shared worker pool. A dependant is
// handed to a fresh pool slot via TryGo when one is free; otherwise it runs
// inline on this worker: Go with a limit set would block for a slot while
// this goroutine still occupies one, which deadlocks a saturated pool on any
// dependency chain.
func (e *StageExecutor) runRecursive(ctx context.Context, g *errgroup.Group, i int, w *World, buffers []*CommandBuffer, staticDependants [][]int, awaiting []int32) error {
	if err := e.runOne(i, w, buffers[i]); err != nil {
		return err
	}
	for _, dep := range staticDependants[i] {
		dep := dep
		if atomic.AddInt32(&awaiting[dep], -1) != 0 {
			continue
		}
		started := g.TryGo(func() error {
			return e.runRecursive(ctx, g, dep, w, buffers, staticDependants, awaiting)
		})
		if !started {
			if err := e.runRecursive(ctx, g, dep, w, buffers, staticDependants, awaiting); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *StageExecutor) runOne(i int, w *World, cb *CommandBuffer) (err error) {
	sys := e.systems[i]
	e.markRunning(i)
	defer e.unmarkRunning(i)
	defer func() {
		if r := recover(); r != nil {
			err = bark.AddTrace(SystemPanicError{System: sys.Name(), Cause: r})
		}
	}()
	e.logger.Debug().Str("system", sys.Name()).Msg("running system")
	sys.Run(w, cb)
	return nil
}

func (e *StageExecutor) markRunning(i int) {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	e.running.Mark(uint32(i))
}

func (e *StageExecutor) unmarkRunning(i int) {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	e.running.Unmark(uint32(i))
}

// Running returns a snapshot of which systems (by declaration index) are
// currently executing. Exposed for tests asserting the scheduler never runs
// two conflicting systems concurrently; not used by Execute itself.
func (e *StageExecutor) Running() mask.Mask256 {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	return e.running
}
