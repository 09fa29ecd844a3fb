package puzzle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/myrjola/mugshots/internal/errors"
)

const (
	// DefaultInventoryTag names the container holding the draggable characters.
	DefaultInventoryTag = "CharacterInventory"
	// DefaultSolutionTag names the container holding the solution slots.
	DefaultSolutionTag = "SolutionInventory"
	// DragLayer is the reserved container items are attached to while they are dragged.
	DragLayer = "DragLayer"
)

// ItemID indexes the item arena of a Puzzle.
type ItemID int

// NoItem marks an empty slot.
const NoItem ItemID = -1

// SlotRef names one slot of a board container.
type SlotRef struct {
	Container string
	Index     int
}

var dragLayerRef = SlotRef{Container: DragLayer, Index: 0}

func (r SlotRef) String() string {
	return fmt.Sprintf("%s/%d", r.Container, r.Index)
}

// ParseSlotRef parses the output of [SlotRef.String].
func ParseSlotRef(s string) (SlotRef, error) {
	i := strings.LastIndex(s, "/")
	if i <= 0 {
		return SlotRef{}, errors.Wrap(ErrUnknownSlot, "parse slot ref: missing container")
	}
	index, err := strconv.Atoi(s[i+1:])
	if err != nil || index < 0 {
		return SlotRef{}, errors.Wrap(ErrUnknownSlot, "parse slot ref: invalid index")
	}
	return SlotRef{Container: s[:i], Index: index}, nil
}

// Vector is a position offset or a pointer delta in screen units.
type Vector struct {
	X float64
	Y float64
}

// Board describes the containers of a puzzle: container tag to number of slots.
type Board map[string]int

// Occupancy reports how many items currently claim a slot.
type Occupancy interface {
	Occupants(ref SlotRef) int
}

type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// MatchResult is the outcome of releasing an item.
type MatchResult int

const (
	// MatchNone means the item was not released over a solution slot and went back to its origin.
	MatchNone MatchResult = iota
	// MatchRejected means the item or the slot lacks its bound record.
	MatchRejected
	MatchMatched
	MatchMismatched
	// MatchOccupied means the slot already holds another item and ReplaceRefuse is in effect.
	MatchOccupied
)

func (r MatchResult) String() string {
	switch r {
	case MatchNone:
		return "none"
	case MatchRejected:
		return "rejected"
	case MatchMatched:
		return "matched"
	case MatchMismatched:
		return "mismatched"
	case MatchOccupied:
		return "occupied"
	}
	return "unknown"
}

type Completion int

const (
	Incomplete Completion = iota
	Completed
)

func (c Completion) String() string {
	if c == Completed {
		return "completed"
	}
	return "incomplete"
}

// ReplacePolicy decides what happens when a matching item is dropped on a slot that is already occupied.
type ReplacePolicy int

const (
	// ReplaceEvict places the new item and sends the previous occupant back to its home slot.
	ReplaceEvict ReplacePolicy = iota
	// ReplaceRefuse keeps the previous occupant and returns the dropped item to its origin.
	ReplaceRefuse
)

// ParseReplacePolicy parses "evict" or "refuse".
func ParseReplacePolicy(s string) (ReplacePolicy, error) {
	switch strings.ToLower(s) {
	case "evict", "":
		return ReplaceEvict, nil
	case "refuse":
		return ReplaceRefuse, nil
	}
	return ReplaceEvict, errors.Wrap(ErrInvalidConfig, "unknown replace policy: "+s)
}

// Placement tells the presentation layer where an item ended up after an event.
type Placement struct {
	Item       ItemID
	Container  SlotRef
	Position   Vector
	State      DragState
	Result     MatchResult
	Completion Completion
}
