package ecs_test

import (
	"fmt"

	ecs "github.com/brightforge-labs/archecs"
)

type Position struct {
	X, Y, Z float64
}

type Velocity struct {
	X, Y, Z float64
}

// Example_basic mirrors the package doc's "Basic Usage" walkthrough: four
// entities get a one-shot velocity integration pass through a write/read view.
func Example_basic() {
	universe := ecs.NewUniverse(nil)
	world := universe.CreateWorld()

	position := ecs.NewComponent[Position]()
	velocity := ecs.NewComponent[Velocity]()

	entities, err := world.Insert(ecs.NoShared, 4, position, velocity)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range entities {
		position.Set(world, e, Position{X: 1, Y: 2, Z: 3})
		velocity.Set(world, e, Velocity{X: 1, Y: 2, Z: 3})
	}

	view := ecs.NewView(ecs.Write(position), ecs.Read(velocity))
	cursor := view.Query(world).IntoCursor()
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
		pos.Z += vel.Z
	}

	cursor = ecs.NewView(ecs.Read(position)).Query(world).IntoCursor()
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		fmt.Println(pos.X, pos.Y, pos.Z)
	}

	// Output:
	// 2 4 6
	// 2 4 6
	// 2 4 6
	// 2 4 6
}
