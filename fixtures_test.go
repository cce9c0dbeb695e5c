package ecs

// Position, Velocity, and Health are the fixture component types shared
// across this package's _test.go files.

type Position struct {
	X, Y, Z float64
}

type Velocity struct {
	X, Y, Z float64
}

type Health struct {
	Current, Max int
}
