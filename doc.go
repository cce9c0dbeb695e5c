/*
Package ecs provides an archetype-based Entity-Component-System data store and
scheduler.

Entities are grouped by the exact set of component types they carry ("archetypes")
and stored columnwise in fixed-capacity chunks for cache-friendly iteration. A
View (which columns to read or write) composed with a Filter (which archetypes and
chunks qualify) produces a Query bound to a World. Systems declare their resource
and component accesses up front; a StageExecutor uses those declarations to run
independent systems concurrently on a worker pool.

Core Concepts:

  - Entity: a generation-tagged handle identifying a record.
  - Component: a per-entity value stored columnwise in a Chunk.
  - Shared component: a per-chunk constant value, identical for every entity in
    that chunk.
  - Archetype: the set of component and shared types a group of entities share.
  - Chunk: a fixed-capacity columnar slice of one archetype.
  - View / Filter / Query: the column-selection and matching pipeline.
  - System / StageExecutor: declared accesses and the scheduler that runs them.

Basic Usage:

	universe := ecs.NewUniverse(nil)
	world := universe.CreateWorld()

	position := ecs.NewComponent[Position]()
	velocity := ecs.NewComponent[Velocity]()

	entities, _ := world.Insert(ecs.NoShared, 4, position, velocity)
	for _, e := range entities {
		position.Set(world, e, Position{X: 1, Y: 2})
		velocity.Set(world, e, Velocity{X: 1, Y: 2})
	}

	view := ecs.NewView(ecs.Write(position), ecs.Read(velocity))
	cursor := view.Query(world).IntoCursor()
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

archecs is the core data store and scheduler; the ergonomic builder layers,
asset pipelines, and rendering integration a full game framework would add on
top are out of scope.
*/
package ecs
