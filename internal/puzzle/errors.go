package puzzle

import "github.com/myrjola/mugshots/internal/errors"

var (
	// ErrContainerNotFound is reported when a board lacks the container a registry is initialized with.
	ErrContainerNotFound = errors.NewSentinel("container not found")
	// ErrMissingBinding is reported when a drop involves an item or slot without its bound record.
	ErrMissingBinding = errors.NewSentinel("missing record binding")
	// ErrNoFreeSlot is reported when a container has no slot left for a new item or solution.
	ErrNoFreeSlot = errors.NewSentinel("no free slot")
	// ErrInvalidTransition is reported for events that are not valid in the current drag state.
	ErrInvalidTransition = errors.NewSentinel("invalid drag state transition")
	ErrUnknownItem       = errors.NewSentinel("unknown item")
	ErrUnknownSlot       = errors.NewSentinel("unknown slot")
	ErrInvalidConfig     = errors.NewSentinel("invalid puzzle configuration")
)
