package models

import (
	"fmt"
	"strings"
)

// CharacterRecord is a suspect of the line-up. It is owned by the record store and never mutated by the puzzle.
type CharacterRecord struct {
	Name       string      `db:"name"`
	Surname    string      `db:"surname"`
	Sex        string      `db:"sex"`
	ImageRef   string      `db:"image_ref"`
	ItemsOwned []OwnedItem `db:"-"`
}

// OwnedItem is an item a character carries, shown to the player as a clue.
type OwnedItem struct {
	Name  string `db:"name"`
	Price int    `db:"price"`
}

// Key uniquely identifies the character in the record store.
func (c CharacterRecord) Key() string {
	return fmt.Sprintf("%s_%s_%s", c.Name, c.Surname, c.Sex)
}

// FullName is the display name of the character.
func (c CharacterRecord) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

// ItemsOwnedSummary lists the owned items one per line, e.g. for a tooltip.
func (c CharacterRecord) ItemsOwnedSummary() string {
	if len(c.ItemsOwned) == 0 {
		return "No items found."
	}
	var b strings.Builder
	b.WriteString("Items Owned:\n")
	for _, item := range c.ItemsOwned {
		_, _ = fmt.Fprintf(&b, "%s: %d gold\n", item.Name, item.Price)
	}
	return b.String()
}

// SolutionRecord is the expected occupant of one solution slot.
type SolutionRecord struct {
	PuzzleID string `db:"puzzle_id"`
	Name     string `db:"name"`
	Sex      string `db:"sex"`
}
