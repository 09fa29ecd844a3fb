package puzzle

import (
	"context"
	"log/slog"

	"github.com/myrjola/mugshots/internal/errors"
)

// Registry indexes the slots of one board container.
type Registry struct {
	logger *slog.Logger
	tag    string
	slots  []SlotRef
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With(slog.String("source", "Registry")),
		tag:    "",
		slots:  nil,
	}
}

// Initialize records the slots of the board container named tag in index order.
//
// A missing container is logged and returned as ErrContainerNotFound. The registry is left empty so that every
// later lookup reports that no slot is available.
func (r *Registry) Initialize(board Board, tag string) error {
	r.tag = tag
	r.slots = nil
	count, ok := board[tag]
	if !ok {
		err := errors.Wrap(ErrContainerNotFound, "initialize registry", slog.String("tag", tag))
		r.logger.LogAttrs(context.Background(), slog.LevelError, "container not found", errors.SlogError(err))
		return err
	}
	for i := range count {
		r.slots = append(r.slots, SlotRef{Container: tag, Index: i})
	}
	return nil
}

func (r *Registry) Tag() string {
	return r.tag
}

// Slots returns a copy of the indexed slots.
func (r *Registry) Slots() []SlotRef {
	return append([]SlotRef(nil), r.slots...)
}

func (r *Registry) Contains(ref SlotRef) bool {
	return ref.Container == r.tag && ref.Index >= 0 && ref.Index < len(r.slots)
}

// FindFirstFreeSlot returns the lowest indexed slot without occupants.
func (r *Registry) FindFirstFreeSlot(occupancy Occupancy) (SlotRef, bool) {
	for _, ref := range r.slots {
		if occupancy.Occupants(ref) == 0 {
			return ref, true
		}
	}
	return SlotRef{}, false
}
