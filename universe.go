package ecs

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var nextWorldID atomic.Uint32

// Universe owns a BlockAllocator shared by every World it creates, so entity
// indices stay globally unique across worlds that belong to it.
type Universe struct {
	logger    zerolog.Logger
	allocator *BlockAllocator
}

// NewUniverse creates a Universe. A nil logger falls back to a disabled
// logger, so logging stays opt-in without special-casing call sites.
func NewUniverse(logger *zerolog.Logger) *Universe {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.Disabled)
	if logger != nil {
		l = *logger
	}
	l.Info().Msg("starting universe")
	return &Universe{
		logger:    l,
		allocator: NewBlockAllocator(),
	}
}

// CreateWorld returns a new World backed by this Universe's shared block
// allocator.
func (u *Universe) CreateWorld() *World {
	id := nextWorldID.Add(1)
	logger := u.logger.With().Uint32("world_id", id).Logger()
	logger.Info().Msg("starting world")
	return newWorld(id, logger, NewEntityAllocator(u.allocator))
}
