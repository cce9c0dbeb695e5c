package ecs

import (
	"context"
	"sort"
	"sync"
	"testing"
)

// TestSharedFilter checks that a chunk-level shared-value predicate only
// matches the chunks whose shared value equals the requested one, not every
// chunk that merely carries the shared type.
func TestSharedFilter(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	model := NewShared[testModel]()

	m1 := testModel{ID: 1}
	m2 := testModel{ID: 2}

	group1, err := world.Insert(Shared(SharedValue(model, m1)), 2, position)
	if err != nil {
		t.Fatal(err)
	}
	group2, err := world.Insert(Shared(SharedValue(model, m2)), 2, position)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range group1 {
		position.Set(world, e, Position{X: float64(i)})
	}
	for i, e := range group2 {
		position.Set(world, e, Position{X: float64(100 + i)})
	}

	q := NewView(Read(position)).Query(world, SharedEquals(model, m1))
	got := map[float64]bool{}
	cursor := q.IntoCursor()
	n := 0
	for cursor.Next() {
		got[position.GetFromCursor(cursor).X] = true
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 matches for Model(1), got %d", n)
	}
	if !got[0] || !got[1] {
		t.Fatalf("unexpected Pos.x values: %v", got)
	}
}

// TestSharedGetByEntity checks the entity-level shared accessor: the value
// comes back for members of a tagged chunk, and absence (dead entity, untagged
// archetype) reports false rather than panicking.
func TestSharedGetByEntity(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	model := NewShared[testModel]()

	tagged, err := world.Insert(Shared(SharedValue(model, testModel{ID: 7})), 1, position)
	if err != nil {
		t.Fatal(err)
	}
	untagged, err := world.Insert(NoShared, 1, position)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := model.Get(world, tagged[0])
	if !ok || got.ID != 7 {
		t.Fatalf("model.Get = %v (ok=%v), want ID=7", got, ok)
	}
	if _, ok := model.Get(world, untagged[0]); ok {
		t.Fatal("expected absent shared value for an untagged archetype")
	}
	world.Delete(tagged[0])
	if _, ok := model.Get(world, tagged[0]); ok {
		t.Fatal("expected absent shared value for a dead entity")
	}
}

// TestForEachChunkParallel checks the pooled chunk visitor: every matching
// chunk is handed to fn exactly once, the occupancy total matches, and the
// iteration lock is gone once it returns.
func TestForEachChunkParallel(t *testing.T) {
	orig := Config.chunkBytesTarget
	Config.SetChunkBytesTarget(48) // Position is 3 float64s = 24 bytes -> capacity 2
	defer Config.SetChunkBytesTarget(orig)

	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	if _, err := world.Insert(NoShared, 7, position); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	visited := map[*Chunk]int{}
	total := 0
	err := NewView(Read(position)).Query(world).ForEachChunkParallel(context.Background(), func(cv ChunkView) error {
		mu.Lock()
		defer mu.Unlock()
		visited[cv.Chunk()]++
		total += cv.Len()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for c, n := range visited {
		if n != 1 {
			t.Fatalf("chunk %p visited %d times, want 1", c, n)
		}
	}
	if total != 7 {
		t.Fatalf("total entities across parallel chunk visits = %d, want 7", total)
	}
	if world.Locked() {
		t.Fatal("world should be unlocked once ForEachChunkParallel returns")
	}
}

func TestQueryCount(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	velocity := NewComponent[Velocity]()

	if _, err := world.Insert(NoShared, 5, position, velocity); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(NoShared, 10, position); err != nil {
		t.Fatal(err)
	}

	q := NewView(Read(position)).Query(world)
	if got := q.Count(); got != 15 {
		t.Fatalf("Count() = %d, want 15", got)
	}
}

func TestQueryIntoData(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()

	entities, err := world.Insert(NoShared, 3, position)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range entities {
		position.Set(world, e, Position{X: float64(i + 1)})
	}

	var xs []float64
	for cur := range NewView(Read(position)).Query(world).IntoData() {
		xs = append(xs, position.GetFromCursor(cur).X)
	}
	sort.Float64s(xs)
	want := []float64{1, 2, 3}
	for i := range want {
		if xs[i] != want[i] {
			t.Fatalf("IntoData() yielded X values %v, want %v", xs, want)
		}
	}
	if world.Locked() {
		t.Fatal("world should be unlocked once IntoData's range loop exits")
	}
}

func TestQueryIntoDataWithEntities(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()

	entities, err := world.Insert(NoShared, 2, position)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[Entity]bool{}
	for e, cur := range NewView(Read(position)).Query(world).IntoDataWithEntities() {
		_ = position.GetFromCursor(cur)
		seen[e] = true
	}
	for _, e := range entities {
		if !seen[e] {
			t.Fatalf("IntoDataWithEntities never yielded entity %v", e)
		}
	}
}

// TestQueryIntoDataBreaksEarlyReleasesLock checks that breaking out of an
// IntoData range loop before exhaustion still releases the world's
// iteration lock, since the deferred release inside the sequence's closure
// runs once the loop's break causes a false yield.
func TestQueryIntoDataBreaksEarlyReleasesLock(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	if _, err := world.Insert(NoShared, 3, position); err != nil {
		t.Fatal(err)
	}

	for range NewView(Read(position)).Query(world).IntoData() {
		break
	}
	if world.Locked() {
		t.Fatal("world should be unlocked after breaking out of IntoData early")
	}
}

// TestQueryIntoChunks checks chunk-granularity iteration: it must visit
// every non-empty matching chunk exactly once, and the occupancy observed
// through each ChunkView must match the chunk's own Len().
func TestQueryIntoChunks(t *testing.T) {
	orig := Config.chunkBytesTarget
	Config.SetChunkBytesTarget(24) // Position is 3 float64s = 24 bytes -> capacity 1
	defer Config.SetChunkBytesTarget(orig)

	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	if _, err := world.Insert(NoShared, 3, position); err != nil {
		t.Fatal(err)
	}

	n := 0
	total := 0
	for cv := range NewView(Read(position)).Query(world).IntoChunks() {
		n++
		total += cv.Len()
		if cv.Chunk().Len() != cv.Len() {
			t.Fatalf("ChunkView.Len() = %d, want Chunk().Len() = %d", cv.Len(), cv.Chunk().Len())
		}
	}
	if n != 3 {
		t.Fatalf("expected 3 chunks of capacity 1 for 3 entities, got %d", n)
	}
	if total != 3 {
		t.Fatalf("total entities across IntoChunks = %d, want 3", total)
	}
	if world.Locked() {
		t.Fatal("world should be unlocked once IntoChunks' range loop exits")
	}
}
