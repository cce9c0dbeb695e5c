package ecs

import "testing"

func TestFilterNotExcludesArchetype(t *testing.T) {
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

	q := NewView(Read(position)).Query(world, Not(velocity))
	if got := q.Count(); got != 10 {
		t.Fatalf("Not(velocity) matched %d rows, want 10", got)
	}
}

func TestFilterAndRequiresAllComponents(t *testing.T) {
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

	q := NewView(Read(position)).Query(world, And(velocity))
	if got := q.Count(); got != 5 {
		t.Fatalf("And(velocity) matched %d rows, want 5", got)
	}
}

// TestFilterHasShared checks the presence-only shared filter: it admits every
// chunk carrying the shared type regardless of value, and composes with Not
// to select only untagged archetypes.
func TestFilterHasShared(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	model := NewShared[testModel]()

	if _, err := world.Insert(Shared(SharedValue(model, testModel{ID: 1})), 2, position); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(Shared(SharedValue(model, testModel{ID: 2})), 3, position); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(NoShared, 4, position); err != nil {
		t.Fatal(err)
	}

	tagged := NewView(Read(position)).Query(world, HasShared(model))
	if got := tagged.Count(); got != 5 {
		t.Fatalf("HasShared matched %d rows, want 5", got)
	}
	untagged := NewView(Read(position)).Query(world, Not(HasShared(model)))
	if got := untagged.Count(); got != 4 {
		t.Fatalf("Not(HasShared) matched %d rows, want 4", got)
	}
}

// TestFilterNotSharedEqualsIsChunkLevel checks that negating a shared-value
// predicate excludes only the chunks holding that exact value: chunks tagged
// with a different value and chunks of untagged archetypes both still match.
func TestFilterNotSharedEqualsIsChunkLevel(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	model := NewShared[testModel]()

	if _, err := world.Insert(Shared(SharedValue(model, testModel{ID: 1})), 2, position); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(Shared(SharedValue(model, testModel{ID: 2})), 3, position); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(NoShared, 4, position); err != nil {
		t.Fatal(err)
	}

	q := NewView(Read(position)).Query(world, Not(SharedEquals(model, testModel{ID: 1})))
	if got := q.Count(); got != 7 {
		t.Fatalf("Not(SharedEquals(ID:1)) matched %d rows, want 7", got)
	}
}

func TestFilterOrMatchesEither(t *testing.T) {
	universe := NewUniverse(nil)
	world := universe.CreateWorld()
	position := NewComponent[Position]()
	velocity := NewComponent[Velocity]()
	health := NewComponent[Health]()

	if _, err := world.Insert(NoShared, 5, position, velocity); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(NoShared, 10, position); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(NoShared, 15, velocity); err != nil {
		t.Fatal(err)
	}
	if _, err := world.Insert(NoShared, 20, health); err != nil {
		t.Fatal(err)
	}

	q := NewView().Query(world, Or(position, velocity))
	if got := q.Count(); got != 30 {
		t.Fatalf("Or(position, velocity) matched %d rows, want 30", got)
	}
}
