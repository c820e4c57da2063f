package world

import "errors"

var (
	// ErrInvalidBounds is returned for a world box whose min exceeds its max.
	ErrInvalidBounds = errors.New("invalid world bounds")
	// ErrOutOfBounds is returned when an edit targets a cell outside the world.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrCannotHold is returned when liquid is placed into a block that cannot
	// contain it.
	ErrCannotHold = errors.New("block cannot hold liquid")
	// ErrUnknownLiquid is returned for a liquid the simulation has no engine for.
	ErrUnknownLiquid = errors.New("unknown liquid")
	// ErrUnknownTerrain is returned when parsing an unrecognised terrain name.
	ErrUnknownTerrain = errors.New("unknown terrain")
)
