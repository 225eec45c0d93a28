package meshing

import (
	"github.com/pkg/errors"
)

// Configuration errors. Detected before any worker starts.
var (
	ErrUnknownStrategy    = errors.New("unknown mesh generator strategy")
	ErrMaterialMismatch   = errors.New("material count mismatch")
	ErrPartitionMismatch  = errors.New("chunk and target counts differ")
	ErrIncompleteMap      = errors.New("map has missing chunks")
	ErrMapTooLarge        = errors.New("map exceeds boundary key range")
	ErrMaterialOutOfRange = errors.New("block type has no material slot")
)

// Pass errors.
var (
	ErrBoundaryCacheMiss = errors.New("boundary cache miss")
	ErrWorkerPanic       = errors.New("mesh worker panicked")
	ErrPassInProgress    = errors.New("generation pass already in progress")
	ErrNotStarted        = errors.New("generation pass not started")
)
