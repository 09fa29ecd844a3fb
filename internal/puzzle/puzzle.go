// Package puzzle implements the line-up puzzle: characters are dragged from an inventory into solution slots and the
// puzzle is completed once every solution slot holds a character matching its expected name and sex.
//
// A Puzzle is not safe for concurrent use. Callers serialise events, e.g. one mutex per puzzle instance.
package puzzle

import (
	"context"
	"log/slog"
	"math"

	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/models"
)

// Item is a draggable character token.
type Item struct {
	ID     ItemID
	Record *models.CharacterRecord
	// Container is the slot the item is attached to, the drag layer while dragging.
	Container SlotRef
	// Origin is the container the current or last drag started from.
	Origin SlotRef
	// Home is the inventory slot the item was created in. It stays reserved for the item.
	Home     SlotRef
	State    DragState
	Position Vector
}

// Slot is a solution slot holding at most one item.
type Slot struct {
	Ref      SlotRef
	Record   *models.SolutionRecord
	Occupant ItemID
}

func (s Slot) Occupied() bool {
	return s.Occupant != NoItem
}

// InventorySlot is a slot of the character inventory.
type InventorySlot struct {
	Ref      SlotRef
	Occupant ItemID
}

type Config struct {
	Board        Board
	InventoryTag string
	SolutionTag  string
	// Zoom is the display scale factor applied to pointer deltas. Zero means 1.
	Zoom      float64
	Policy    ReplacePolicy
	Resolver  Resolver
	Indicator Indicator
}

type Puzzle struct {
	logger    *slog.Logger
	zoom      float64
	policy    ReplacePolicy
	resolver  Resolver
	inventory *Registry
	solutions *Registry
	monitor   *CompletionMonitor
	items     []*Item
	slots     map[SlotRef]*Slot
}

// New builds a puzzle from the board containers named in cfg.
//
// Missing containers are not fatal. They are logged and leave the corresponding registry empty.
func New(logger *slog.Logger, cfg Config) (*Puzzle, error) {
	zoom := cfg.Zoom
	if zoom == 0 {
		zoom = 1
	}
	if zoom < 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return nil, errors.Wrap(ErrInvalidConfig, "zoom must be positive", slog.Float64("zoom", cfg.Zoom))
	}
	if cfg.InventoryTag == "" {
		cfg.InventoryTag = DefaultInventoryTag
	}
	if cfg.SolutionTag == "" {
		cfg.SolutionTag = DefaultSolutionTag
	}
	if cfg.InventoryTag == cfg.SolutionTag || cfg.InventoryTag == DragLayer || cfg.SolutionTag == DragLayer {
		return nil, errors.Wrap(ErrInvalidConfig, "container tags must be distinct",
			slog.String("inventoryTag", cfg.InventoryTag), slog.String("solutionTag", cfg.SolutionTag))
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = ResolverFunc(func(Vector) (SlotRef, bool) { return SlotRef{}, false })
	}

	logger = logger.With(slog.String("source", "Puzzle"))
	p := &Puzzle{
		logger:    logger,
		zoom:      zoom,
		policy:    cfg.Policy,
		resolver:  resolver,
		inventory: NewRegistry(logger),
		solutions: NewRegistry(logger),
		monitor:   NewCompletionMonitor(cfg.Indicator),
		items:     nil,
		slots:     make(map[SlotRef]*Slot),
	}
	// Registry initialization logs missing containers.
	_ = p.inventory.Initialize(cfg.Board, cfg.InventoryTag)
	_ = p.solutions.Initialize(cfg.Board, cfg.SolutionTag)
	for _, ref := range p.solutions.Slots() {
		p.slots[ref] = &Slot{Ref: ref, Record: nil, Occupant: NoItem}
	}
	p.monitor.Check(p.solutionSlots())
	return p, nil
}

// Occupants counts the items attached to ref. Inventory slots also count the item whose home they are.
func (p *Puzzle) Occupants(ref SlotRef) int {
	n := 0
	for _, item := range p.items {
		if item.Container == ref || item.Home == ref {
			n++
		}
	}
	return n
}

// AddCharacter creates an item in the first free inventory slot. A nil record creates an unbound item.
func (p *Puzzle) AddCharacter(record *models.CharacterRecord) (ItemID, error) {
	home, ok := p.inventory.FindFirstFreeSlot(p)
	if !ok {
		err := errors.Wrap(ErrNoFreeSlot, "add character", slog.String("container", p.inventory.Tag()))
		p.logger.LogAttrs(context.Background(), slog.LevelWarn, "no free inventory slot", errors.SlogError(err))
		return NoItem, err
	}
	item := &Item{
		ID:        ItemID(len(p.items)),
		Record:    record,
		Container: home,
		Origin:    home,
		Home:      home,
		State:     Idle,
		Position:  Vector{},
	}
	p.items = append(p.items, item)
	return item.ID, nil
}

// AddSolution binds record to the first solution slot without a binding.
func (p *Puzzle) AddSolution(record *models.SolutionRecord) (SlotRef, error) {
	for _, ref := range p.solutions.Slots() {
		if slot := p.slots[ref]; slot.Record == nil {
			slot.Record = record
			return ref, nil
		}
	}
	err := errors.Wrap(ErrNoFreeSlot, "add solution", slog.String("container", p.solutions.Tag()))
	p.logger.LogAttrs(context.Background(), slog.LevelWarn, "no unbound solution slot", errors.SlogError(err))
	return SlotRef{}, err
}

// BeginDrag detaches an idle item from its container and attaches it to the drag layer.
//
// Dragging an item out of a solution slot vacates the slot and re-checks completion.
func (p *Puzzle) BeginDrag(id ItemID) (Placement, error) {
	item, err := p.item(id)
	if err != nil {
		return Placement{}, err
	}
	if item.State != Idle {
		return Placement{}, errors.Wrap(ErrInvalidTransition, "begin drag",
			slog.Int("item", int(id)), slog.String("state", item.State.String()))
	}
	if p.detach(item) {
		p.CheckSolutions()
	}
	return p.placement(item, MatchNone), nil
}

// Drag moves a dragged item by the pointer delta scaled by the display zoom.
func (p *Puzzle) Drag(id ItemID, delta Vector) (Placement, error) {
	item, err := p.item(id)
	if err != nil {
		return Placement{}, err
	}
	if item.State != Dragging {
		return Placement{}, errors.Wrap(ErrInvalidTransition, "drag",
			slog.Int("item", int(id)), slog.String("state", item.State.String()))
	}
	item.Position.X += delta.X / p.zoom
	item.Position.Y += delta.Y / p.zoom
	return p.placement(item, MatchNone), nil
}

// EndDrag releases a dragged item at the pointer position.
func (p *Puzzle) EndDrag(id ItemID, pointer Vector) (Placement, error) {
	var target *SlotRef
	if ref, ok := p.resolver.Resolve(pointer); ok {
		target = &ref
	}
	return p.Release(id, target)
}

// Release ends a drag with an already resolved drop target. A nil target or a target that is not a solution slot
// returns the item to its origin.
func (p *Puzzle) Release(id ItemID, target *SlotRef) (Placement, error) {
	item, err := p.item(id)
	if err != nil {
		return Placement{}, err
	}
	if item.State != Dragging {
		return Placement{}, errors.Wrap(ErrInvalidTransition, "release",
			slog.Int("item", int(id)), slog.String("state", item.State.String()))
	}
	result := MatchNone
	if target != nil && p.solutions.Contains(*target) {
		result, err = p.Drop(*target, id)
		switch {
		case err == nil:
			return p.placement(item, result), nil
		case errors.Is(err, ErrMissingBinding):
			p.logger.LogAttrs(context.Background(), slog.LevelWarn, "drop rejected", errors.SlogError(err))
		default:
			return Placement{}, err
		}
	}
	p.returnToOrigin(item)
	p.CheckSolutions()
	return p.placement(item, result), nil
}

// Drop runs the match protocol of the slot for the item.
//
// A matching item is placed in the slot. A mismatching item goes back to its origin and the slot keeps its
// occupant. Completion is re-checked in both cases. An item or slot without its bound record rejects the drop
// without changing any state. Dropping an idle item detaches it first, as if it had been dragged.
func (p *Puzzle) Drop(ref SlotRef, id ItemID) (MatchResult, error) {
	slot, err := p.slot(ref)
	if err != nil {
		return MatchRejected, err
	}
	item, err := p.item(id)
	if err != nil {
		return MatchRejected, err
	}
	if item.Record == nil || slot.Record == nil {
		return MatchRejected, errors.Wrap(ErrMissingBinding, "drop",
			slog.Int("item", int(id)), slog.String("slot", ref.String()),
			slog.Bool("itemBound", item.Record != nil), slog.Bool("slotBound", slot.Record != nil))
	}
	if item.State == Idle {
		p.detach(item)
	}

	var result MatchResult
	switch {
	case !matches(item, slot):
		p.returnToOrigin(item)
		result = MatchMismatched
	case slot.Occupied() && slot.Occupant != id && p.policy == ReplaceRefuse:
		p.returnToOrigin(item)
		result = MatchOccupied
	default:
		if slot.Occupied() && slot.Occupant != id {
			p.sendHome(p.items[slot.Occupant])
		}
		p.place(item, slot)
		result = MatchMatched
	}
	p.CheckSolutions()
	return result, nil
}

// Vacate sends the occupant of a solution slot back to its home slot.
func (p *Puzzle) Vacate(ref SlotRef) (Completion, error) {
	slot, err := p.slot(ref)
	if err != nil {
		return Incomplete, err
	}
	if slot.Occupied() {
		p.sendHome(p.items[slot.Occupant])
		slot.Occupant = NoItem
	}
	return p.CheckSolutions(), nil
}

// CheckSolutions re-evaluates completion and toggles the indicator.
func (p *Puzzle) CheckSolutions() Completion {
	return p.monitor.Check(p.solutionSlots())
}

// Completion evaluates completion without touching the indicator.
func (p *Puzzle) Completion() Completion {
	return p.monitor.Evaluate(p.solutionSlots())
}

// Items returns snapshots of all items ordered by ID.
func (p *Puzzle) Items() []Item {
	items := make([]Item, 0, len(p.items))
	for _, item := range p.items {
		items = append(items, *item)
	}
	return items
}

func (p *Puzzle) Item(id ItemID) (Item, error) {
	item, err := p.item(id)
	if err != nil {
		return Item{}, err
	}
	return *item, nil
}

// Slots returns snapshots of the solution slots in index order.
func (p *Puzzle) Slots() []Slot {
	return p.solutionSlots()
}

func (p *Puzzle) Slot(ref SlotRef) (Slot, error) {
	slot, err := p.slot(ref)
	if err != nil {
		return Slot{}, err
	}
	return *slot, nil
}

// Inventory returns the inventory slots in index order with the items attached to them.
func (p *Puzzle) Inventory() []InventorySlot {
	refs := p.inventory.Slots()
	inventory := make([]InventorySlot, 0, len(refs))
	for _, ref := range refs {
		occupant := NoItem
		for _, item := range p.items {
			if item.Container == ref {
				occupant = item.ID
				break
			}
		}
		inventory = append(inventory, InventorySlot{Ref: ref, Occupant: occupant})
	}
	return inventory
}

func (p *Puzzle) item(id ItemID) (*Item, error) {
	if id < 0 || int(id) >= len(p.items) {
		return nil, errors.Wrap(ErrUnknownItem, "lookup item", slog.Int("item", int(id)))
	}
	return p.items[id], nil
}

func (p *Puzzle) slot(ref SlotRef) (*Slot, error) {
	slot, ok := p.slots[ref]
	if !ok {
		return nil, errors.Wrap(ErrUnknownSlot, "lookup slot", slog.String("slot", ref.String()))
	}
	return slot, nil
}

func (p *Puzzle) solutionSlots() []Slot {
	refs := p.solutions.Slots()
	slots := make([]Slot, 0, len(refs))
	for _, ref := range refs {
		slots = append(slots, *p.slots[ref])
	}
	return slots
}

func (p *Puzzle) placement(item *Item, result MatchResult) Placement {
	return Placement{
		Item:       item.ID,
		Container:  item.Container,
		Position:   item.Position,
		State:      item.State,
		Result:     result,
		Completion: p.Completion(),
	}
}

// detach records the origin and moves the item to the drag layer. It reports whether a solution slot was vacated.
func (p *Puzzle) detach(item *Item) bool {
	item.Origin = item.Container
	vacated := false
	if slot, ok := p.slots[item.Container]; ok && slot.Occupant == item.ID {
		slot.Occupant = NoItem
		vacated = true
	}
	item.Container = dragLayerRef
	item.State = Dragging
	return vacated
}

func (p *Puzzle) place(item *Item, slot *Slot) {
	item.Container = slot.Ref
	item.Position = Vector{}
	item.State = Idle
	slot.Occupant = item.ID
}

// returnToOrigin reattaches the item to where its drag started. A solution slot origin is only reoccupied when it
// is still vacant, otherwise the item goes home.
func (p *Puzzle) returnToOrigin(item *Item) {
	if slot, ok := p.slots[item.Origin]; ok {
		if !slot.Occupied() && item.Record != nil && slot.Record != nil && matches(item, slot) {
			p.place(item, slot)
			return
		}
		p.sendHome(item)
		return
	}
	item.Container = item.Origin
	item.Position = Vector{}
	item.State = Idle
}

func (p *Puzzle) sendHome(item *Item) {
	if slot, ok := p.slots[item.Container]; ok && slot.Occupant == item.ID {
		slot.Occupant = NoItem
	}
	item.Container = item.Home
	item.Origin = item.Home
	item.Position = Vector{}
	item.State = Idle
}

// matches compares the match key. Surname is not part of it.
func matches(item *Item, slot *Slot) bool {
	return item.Record.Name == slot.Record.Name && item.Record.Sex == slot.Record.Sex
}
