package puzzle_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/puzzle"
	"github.com/myrjola/mugshots/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndicator struct {
	visible []bool
}

func (r *recordingIndicator) SetVisible(visible bool) {
	r.visible = append(r.visible, visible)
}

func (r *recordingIndicator) last() bool {
	if len(r.visible) == 0 {
		return false
	}
	return r.visible[len(r.visible)-1]
}

func newPuzzle(t *testing.T, inventorySlots, solutionSlots int, opts ...func(*puzzle.Config)) (*puzzle.Puzzle, *recordingIndicator) {
	t.Helper()
	indicator := &recordingIndicator{visible: nil}
	cfg := puzzle.Config{
		Board: puzzle.Board{
			puzzle.DefaultInventoryTag: inventorySlots,
			puzzle.DefaultSolutionTag:  solutionSlots,
		},
		InventoryTag: puzzle.DefaultInventoryTag,
		SolutionTag:  puzzle.DefaultSolutionTag,
		Zoom:         1,
		Policy:       puzzle.ReplaceEvict,
		Resolver:     nil,
		Indicator:    indicator,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	p, err := puzzle.New(testhelpers.NewLogger(io.Discard), cfg)
	require.NoError(t, err)
	return p, indicator
}

func character(name, surname, sex string) *models.CharacterRecord {
	return &models.CharacterRecord{
		Name:       name,
		Surname:    surname,
		Sex:        sex,
		ImageRef:   "portraits/" + name + ".png",
		ItemsOwned: []models.OwnedItem{},
	}
}

func solution(id, name, sex string) *models.SolutionRecord {
	return &models.SolutionRecord{PuzzleID: id, Name: name, Sex: sex}
}

func slotRef(index int) puzzle.SlotRef {
	return puzzle.SlotRef{Container: puzzle.DefaultSolutionTag, Index: index}
}

func inventoryRef(index int) puzzle.SlotRef {
	return puzzle.SlotRef{Container: puzzle.DefaultInventoryTag, Index: index}
}

func dragTo(t *testing.T, p *puzzle.Puzzle, id puzzle.ItemID, target *puzzle.SlotRef) puzzle.Placement {
	t.Helper()
	_, err := p.BeginDrag(id)
	require.NoError(t, err)
	placement, err := p.Release(id, target)
	require.NoError(t, err)
	return placement
}

func TestDrop(t *testing.T) {
	t.Run("matching character is placed", func(t *testing.T) {
		p, indicator := newPuzzle(t, 2, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		target := ref
		placement := dragTo(t, p, id, &target)
		assert.Equal(t, puzzle.MatchMatched, placement.Result)
		assert.Equal(t, ref, placement.Container)
		assert.Equal(t, puzzle.Idle, placement.State)
		assert.Equal(t, puzzle.Completed, placement.Completion)

		slot, err := p.Slot(ref)
		require.NoError(t, err)
		assert.Equal(t, id, slot.Occupant)
		item, err := p.Item(id)
		require.NoError(t, err)
		assert.Equal(t, ref, item.Container)
		assert.Equal(t, puzzle.Vector{}, item.Position)
		assert.True(t, indicator.last())
	})

	t.Run("wrong sex is returned to origin", func(t *testing.T) {
		p, indicator := newPuzzle(t, 2, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Smith", "M"))
		require.NoError(t, err)

		target := ref
		placement := dragTo(t, p, id, &target)
		assert.Equal(t, puzzle.MatchMismatched, placement.Result)
		assert.Equal(t, inventoryRef(0), placement.Container)
		assert.Equal(t, puzzle.Incomplete, placement.Completion)

		slot, err := p.Slot(ref)
		require.NoError(t, err)
		assert.False(t, slot.Occupied())
		assert.False(t, indicator.last())
	})

	t.Run("surname is not part of the match key", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Jones", "F"))
		require.NoError(t, err)

		target := ref
		assert.Equal(t, puzzle.MatchMatched, dragTo(t, p, id, &target).Result)
	})

	t.Run("mismatch keeps existing occupant", func(t *testing.T) {
		p, _ := newPuzzle(t, 2, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		alice, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		bob, err := p.AddCharacter(character("Bob", "Brown", "M"))
		require.NoError(t, err)

		target := ref
		dragTo(t, p, alice, &target)
		placement := dragTo(t, p, bob, &target)
		assert.Equal(t, puzzle.MatchMismatched, placement.Result)
		assert.Equal(t, inventoryRef(1), placement.Container)

		slot, err := p.Slot(ref)
		require.NoError(t, err)
		assert.Equal(t, alice, slot.Occupant)
	})

	t.Run("dropping the placed item again is idempotent", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		for range 2 {
			result, err := p.Drop(ref, id)
			require.NoError(t, err)
			assert.Equal(t, puzzle.MatchMatched, result)
			slot, err := p.Slot(ref)
			require.NoError(t, err)
			assert.Equal(t, id, slot.Occupant)
			item, err := p.Item(id)
			require.NoError(t, err)
			assert.Equal(t, ref, item.Container)
			assert.Equal(t, puzzle.Idle, item.State)
		}
	})

	t.Run("missing bindings reject the drop", func(t *testing.T) {
		p, _ := newPuzzle(t, 2, 2)
		bound, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		unbound := slotRef(1)
		unboundItem, err := p.AddCharacter(nil)
		require.NoError(t, err)
		alice, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		result, err := p.Drop(bound, unboundItem)
		require.ErrorIs(t, err, puzzle.ErrMissingBinding)
		assert.Equal(t, puzzle.MatchRejected, result)

		result, err = p.Drop(unbound, alice)
		require.ErrorIs(t, err, puzzle.ErrMissingBinding)
		assert.Equal(t, puzzle.MatchRejected, result)
		item, err := p.Item(alice)
		require.NoError(t, err)
		assert.Equal(t, puzzle.Idle, item.State, "rejected drop must not change state")
		assert.Equal(t, inventoryRef(1), item.Container)

		// The end drag logic returns a rejected item to its origin.
		placement := dragTo(t, p, alice, &unbound)
		assert.Equal(t, puzzle.MatchRejected, placement.Result)
		assert.Equal(t, inventoryRef(1), placement.Container)
		assert.Equal(t, puzzle.Idle, placement.State)
	})

	t.Run("unknown slot and item", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		_, err = p.Drop(slotRef(5), id)
		require.ErrorIs(t, err, puzzle.ErrUnknownSlot)
		_, err = p.Drop(slotRef(0), puzzle.ItemID(42))
		require.ErrorIs(t, err, puzzle.ErrUnknownItem)
	})
}

func TestReplacePolicy(t *testing.T) {
	setup := func(t *testing.T, policy puzzle.ReplacePolicy) (*puzzle.Puzzle, puzzle.SlotRef, puzzle.ItemID, puzzle.ItemID) {
		t.Helper()
		p, _ := newPuzzle(t, 2, 1, func(cfg *puzzle.Config) { cfg.Policy = policy })
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		first, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		second, err := p.AddCharacter(character("Alice", "Jones", "F"))
		require.NoError(t, err)
		target := ref
		dragTo(t, p, first, &target)
		return p, ref, first, second
	}

	t.Run("evict sends previous occupant home", func(t *testing.T) {
		p, ref, first, second := setup(t, puzzle.ReplaceEvict)
		target := ref
		placement := dragTo(t, p, second, &target)
		assert.Equal(t, puzzle.MatchMatched, placement.Result)
		assert.Equal(t, puzzle.Completed, placement.Completion)

		slot, err := p.Slot(ref)
		require.NoError(t, err)
		assert.Equal(t, second, slot.Occupant)
		evicted, err := p.Item(first)
		require.NoError(t, err)
		assert.Equal(t, inventoryRef(0), evicted.Container)
		assert.Equal(t, puzzle.Idle, evicted.State)
	})

	t.Run("refuse keeps previous occupant", func(t *testing.T) {
		p, ref, first, second := setup(t, puzzle.ReplaceRefuse)
		target := ref
		placement := dragTo(t, p, second, &target)
		assert.Equal(t, puzzle.MatchOccupied, placement.Result)
		assert.Equal(t, inventoryRef(1), placement.Container)

		slot, err := p.Slot(ref)
		require.NoError(t, err)
		assert.Equal(t, first, slot.Occupant)
	})
}

func TestCheckSolutions(t *testing.T) {
	t.Run("two slots complete only when both are occupied", func(t *testing.T) {
		p, indicator := newPuzzle(t, 2, 2)
		first, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		second, err := p.AddSolution(solution("p2", "Bob", "M"))
		require.NoError(t, err)
		alice, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		bob, err := p.AddCharacter(character("Bob", "Brown", "M"))
		require.NoError(t, err)

		dragTo(t, p, alice, &first)
		assert.Equal(t, puzzle.Incomplete, p.CheckSolutions())
		assert.False(t, indicator.last())

		dragTo(t, p, bob, &second)
		assert.Equal(t, puzzle.Completed, p.CheckSolutions())
		assert.Equal(t, puzzle.Completed, p.CheckSolutions(), "repeated check must agree")
		assert.True(t, indicator.last())

		completion, err := p.Vacate(first)
		require.NoError(t, err)
		assert.Equal(t, puzzle.Incomplete, completion)
		assert.Equal(t, puzzle.Incomplete, p.CheckSolutions())
		assert.False(t, indicator.last())
		item, err := p.Item(alice)
		require.NoError(t, err)
		assert.Equal(t, inventoryRef(0), item.Container)
	})

	t.Run("no solution slots is incomplete", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 0)
		assert.Equal(t, puzzle.Incomplete, p.CheckSolutions())
	})

	t.Run("dragging out of a solution slot hides the indicator", func(t *testing.T) {
		p, indicator := newPuzzle(t, 1, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		dragTo(t, p, id, &ref)
		require.True(t, indicator.last())

		placement, err := p.BeginDrag(id)
		require.NoError(t, err)
		assert.Equal(t, puzzle.Incomplete, placement.Completion)
		assert.False(t, indicator.last())
		slot, err := p.Slot(ref)
		require.NoError(t, err)
		assert.False(t, slot.Occupied())

		// Releasing nowhere restores the placement.
		placement, err = p.Release(id, nil)
		require.NoError(t, err)
		assert.Equal(t, ref, placement.Container)
		assert.Equal(t, puzzle.Completed, placement.Completion)
		assert.True(t, indicator.last())
	})
}

func TestDragLifecycle(t *testing.T) {
	t.Run("drag scales deltas by zoom", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1, func(cfg *puzzle.Config) { cfg.Zoom = 2 })
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		placement, err := p.BeginDrag(id)
		require.NoError(t, err)
		assert.Equal(t, puzzle.SlotRef{Container: puzzle.DragLayer, Index: 0}, placement.Container)
		assert.Equal(t, puzzle.Dragging, placement.State)

		_, err = p.Drag(id, puzzle.Vector{X: 10, Y: -4})
		require.NoError(t, err)
		placement, err = p.Drag(id, puzzle.Vector{X: 2, Y: 2})
		require.NoError(t, err)
		assert.Equal(t, puzzle.Vector{X: 6, Y: -1}, placement.Position)
	})

	t.Run("invalid transitions", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		_, err = p.Drag(id, puzzle.Vector{X: 1, Y: 1})
		require.ErrorIs(t, err, puzzle.ErrInvalidTransition)
		_, err = p.EndDrag(id, puzzle.Vector{})
		require.ErrorIs(t, err, puzzle.ErrInvalidTransition)
		_, err = p.BeginDrag(id)
		require.NoError(t, err)
		_, err = p.BeginDrag(id)
		require.ErrorIs(t, err, puzzle.ErrInvalidTransition)
		_, err = p.BeginDrag(puzzle.ItemID(7))
		require.ErrorIs(t, err, puzzle.ErrUnknownItem)
	})

	t.Run("end drag resolves the pointer", func(t *testing.T) {
		resolver := puzzle.NewRectResolver()
		resolver.Add(slotRef(0), puzzle.Rect{Min: puzzle.Vector{X: 0, Y: 0}, Max: puzzle.Vector{X: 100, Y: 100}})
		resolver.Add(inventoryRef(0), puzzle.Rect{Min: puzzle.Vector{X: 0, Y: 200}, Max: puzzle.Vector{X: 100, Y: 300}})
		p, _ := newPuzzle(t, 1, 1, func(cfg *puzzle.Config) { cfg.Resolver = resolver })
		_, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		// Released over the inventory which is not a drop target.
		_, err = p.BeginDrag(id)
		require.NoError(t, err)
		_, err = p.Drag(id, puzzle.Vector{X: 30, Y: 30})
		require.NoError(t, err)
		placement, err := p.EndDrag(id, puzzle.Vector{X: 50, Y: 250})
		require.NoError(t, err)
		assert.Equal(t, puzzle.MatchNone, placement.Result)
		assert.Equal(t, inventoryRef(0), placement.Container)
		assert.Equal(t, puzzle.Vector{}, placement.Position)

		// Released outside any container.
		_, err = p.BeginDrag(id)
		require.NoError(t, err)
		placement, err = p.EndDrag(id, puzzle.Vector{X: 500, Y: 500})
		require.NoError(t, err)
		assert.Equal(t, puzzle.MatchNone, placement.Result)
		assert.Equal(t, inventoryRef(0), placement.Container)

		_, err = p.BeginDrag(id)
		require.NoError(t, err)
		placement, err = p.EndDrag(id, puzzle.Vector{X: 50, Y: 50})
		require.NoError(t, err)
		assert.Equal(t, puzzle.MatchMatched, placement.Result)
		assert.Equal(t, slotRef(0), placement.Container)
	})

	t.Run("moving between solution slots", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 2)
		first, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		second, err := p.AddSolution(solution("p2", "Alice", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)

		dragTo(t, p, id, &first)
		placement := dragTo(t, p, id, &second)
		assert.Equal(t, puzzle.MatchMatched, placement.Result)

		slot, err := p.Slot(first)
		require.NoError(t, err)
		assert.False(t, slot.Occupied())
		slot, err = p.Slot(second)
		require.NoError(t, err)
		assert.Equal(t, id, slot.Occupant)
	})
}

func TestSetup(t *testing.T) {
	t.Run("no free inventory slot", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1)
		_, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		id, err := p.AddCharacter(character("Bob", "Brown", "M"))
		require.ErrorIs(t, err, puzzle.ErrNoFreeSlot)
		assert.Equal(t, puzzle.NoItem, id)
		assert.Len(t, p.Items(), 1)
	})

	t.Run("home slot stays reserved while the item is placed", func(t *testing.T) {
		p, _ := newPuzzle(t, 2, 1)
		ref, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		alice, err := p.AddCharacter(character("Alice", "Smith", "F"))
		require.NoError(t, err)
		dragTo(t, p, alice, &ref)

		bob, err := p.AddCharacter(character("Bob", "Brown", "M"))
		require.NoError(t, err)
		item, err := p.Item(bob)
		require.NoError(t, err)
		assert.Equal(t, inventoryRef(1), item.Home)

		inventory := p.Inventory()
		require.Len(t, inventory, 2)
		assert.Equal(t, puzzle.NoItem, inventory[0].Occupant)
		assert.Equal(t, bob, inventory[1].Occupant)
	})

	t.Run("no unbound solution slot", func(t *testing.T) {
		p, _ := newPuzzle(t, 1, 1)
		_, err := p.AddSolution(solution("p1", "Alice", "F"))
		require.NoError(t, err)
		_, err = p.AddSolution(solution("p2", "Bob", "M"))
		require.ErrorIs(t, err, puzzle.ErrNoFreeSlot)
	})

	t.Run("missing containers are logged and leave the puzzle empty", func(t *testing.T) {
		var logs bytes.Buffer
		p, err := puzzle.New(testhelpers.NewLogger(&logs), puzzle.Config{
			Board:        puzzle.Board{},
			InventoryTag: "",
			SolutionTag:  "",
			Zoom:         0,
			Policy:       puzzle.ReplaceEvict,
			Resolver:     nil,
			Indicator:    nil,
		})
		require.NoError(t, err)
		assert.Contains(t, logs.String(), "container not found")
		assert.Empty(t, p.Slots())
		_, err = p.AddCharacter(character("Alice", "Smith", "F"))
		require.ErrorIs(t, err, puzzle.ErrNoFreeSlot)
		assert.Equal(t, puzzle.Incomplete, p.CheckSolutions())
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := puzzle.New(testhelpers.NewLogger(io.Discard), puzzle.Config{
			Board:        puzzle.Board{},
			InventoryTag: "",
			SolutionTag:  "",
			Zoom:         -1,
			Policy:       puzzle.ReplaceEvict,
			Resolver:     nil,
			Indicator:    nil,
		})
		require.ErrorIs(t, err, puzzle.ErrInvalidConfig)

		_, err = puzzle.New(testhelpers.NewLogger(io.Discard), puzzle.Config{
			Board:        puzzle.Board{},
			InventoryTag: "Same",
			SolutionTag:  "Same",
			Zoom:         1,
			Policy:       puzzle.ReplaceEvict,
			Resolver:     nil,
			Indicator:    nil,
		})
		require.ErrorIs(t, err, puzzle.ErrInvalidConfig)
	})
}

func TestSlotRef(t *testing.T) {
	ref, err := puzzle.ParseSlotRef(slotRef(3).String())
	require.NoError(t, err)
	assert.Equal(t, slotRef(3), ref)

	for _, invalid := range []string{"", "3", "/3", "SolutionInventory/x", "SolutionInventory/-1"} {
		_, err = puzzle.ParseSlotRef(invalid)
		require.ErrorIs(t, err, puzzle.ErrUnknownSlot, invalid)
	}
}
