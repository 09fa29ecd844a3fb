package play

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/mugshots/internal/metrics"
	"github.com/myrjola/mugshots/internal/models"
	"github.com/myrjola/mugshots/internal/puzzle"
)

// Session owns one puzzle instance. Every event holds the session lock for its whole duration so that a drop and its
// completion re-check are never interleaved with another event.
type Session struct {
	ID       uuid.UUID
	mu       sync.Mutex
	puzzle   *puzzle.Puzzle
	metrics  *metrics.Metrics
	now      func() time.Time
	lastSeen time.Time
	solved   bool
	// skipped lists the characters that did not fit in the inventory.
	skipped []models.CharacterRecord
}

// Snapshot is a consistent view of a puzzle for rendering.
type Snapshot struct {
	SessionID  uuid.UUID
	Items      []puzzle.Item
	Slots      []puzzle.Slot
	Inventory  []puzzle.InventorySlot
	Completion puzzle.Completion
	Skipped    []models.CharacterRecord
}

// Item looks up an item of the snapshot.
func (s Snapshot) Item(id puzzle.ItemID) (puzzle.Item, bool) {
	if id < 0 || int(id) >= len(s.Items) {
		return puzzle.Item{}, false
	}
	return s.Items[id], true
}

// Dragging returns the items currently attached to the drag layer.
func (s Snapshot) Dragging() []puzzle.Item {
	var dragging []puzzle.Item
	for _, item := range s.Items {
		if item.State == puzzle.Dragging {
			dragging = append(dragging, item)
		}
	}
	return dragging
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID:  s.ID,
		Items:      s.puzzle.Items(),
		Slots:      s.puzzle.Slots(),
		Inventory:  s.puzzle.Inventory(),
		Completion: s.puzzle.Completion(),
		Skipped:    append([]models.CharacterRecord(nil), s.skipped...),
	}
}

func (s *Session) BeginDrag(id puzzle.ItemID) (puzzle.Placement, error) {
	defer s.metrics.ObserveEvent("begin_drag", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return s.puzzle.BeginDrag(id)
}

func (s *Session) Drag(id puzzle.ItemID, delta puzzle.Vector) (puzzle.Placement, error) {
	defer s.metrics.ObserveEvent("drag", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return s.puzzle.Drag(id, delta)
}

// EndDrag releases the item at the pointer position.
func (s *Session) EndDrag(id puzzle.ItemID, pointer puzzle.Vector) (puzzle.Placement, error) {
	defer s.metrics.ObserveEvent("end_drag", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	placement, err := s.puzzle.EndDrag(id, pointer)
	if err == nil {
		s.metrics.IncrementDrop(placement.Result.String())
	}
	return placement, err
}

// Release ends the drag of an item on an already resolved target, nil for none.
func (s *Session) Release(id puzzle.ItemID, target *puzzle.SlotRef) (puzzle.Placement, error) {
	defer s.metrics.ObserveEvent("release", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	placement, err := s.puzzle.Release(id, target)
	if err == nil {
		s.metrics.IncrementDrop(placement.Result.String())
	}
	return placement, err
}

// Move drags an idle item onto target in one event, as a keyboard or form driven interface would.
func (s *Session) Move(id puzzle.ItemID, target *puzzle.SlotRef) (puzzle.Placement, error) {
	defer s.metrics.ObserveEvent("move", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	if _, err := s.puzzle.BeginDrag(id); err != nil {
		return puzzle.Placement{}, err
	}
	placement, err := s.puzzle.Release(id, target)
	if err == nil {
		s.metrics.IncrementDrop(placement.Result.String())
	}
	return placement, err
}

func (s *Session) Vacate(ref puzzle.SlotRef) (puzzle.Completion, error) {
	defer s.metrics.ObserveEvent("vacate", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return s.puzzle.Vacate(ref)
}

// CheckSolutions re-evaluates completion and toggles the indicator.
func (s *Session) CheckSolutions() puzzle.Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puzzle.CheckSolutions()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
