// Package savestore persists encoded save documents in numbered slots.
package savestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/cory-johannsen/adventure/internal/savegame"
)

// ErrSlotNotFound is returned when reading or deleting an empty slot.
var ErrSlotNotFound = errors.New("save slot not found")

// ErrInvalidSlot is returned for a negative slot number.
var ErrInvalidSlot = errors.New("invalid save slot")

var slotPattern = regexp.MustCompile(`^Savegame(\d+)\.save$`)

// SlotName returns the file name of slot, e.g. "Savegame1.save".
func SlotName(slot int) string { return fmt.Sprintf("Savegame%d.save", slot) }

// parseSlotName reverses SlotName.
func parseSlotName(name string) (int, bool) {
	m := slotPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func checkSlot(slot int) error {
	if slot < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}

// Store keeps encoded documents by slot number.
type Store interface {
	// Write replaces the content of slot.
	Write(ctx context.Context, slot int, data []byte) error
	// Read returns the content of slot, or ErrSlotNotFound.
	Read(ctx context.Context, slot int) ([]byte, error)
	// Delete empties slot, or returns ErrSlotNotFound.
	Delete(ctx context.Context, slot int) error
	// Slots lists the occupied slots in ascending order.
	Slots(ctx context.Context) ([]int, error)
}

// Slots pairs a Store with the document codec.
type Slots struct {
	store Store
	codec *savegame.Codec
}

// NewSlots creates Slots over store.
//
// Precondition: store and codec must be non-nil.
func NewSlots(store Store, codec *savegame.Codec) *Slots {
	return &Slots{store: store, codec: codec}
}

// Save encodes doc into slot.
//
// Postcondition: Returns a non-nil error if encoding or writing fails.
func (s *Slots) Save(ctx context.Context, slot int, doc savegame.Value) error {
	data, err := s.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	if err := s.store.Write(ctx, slot, data); err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	return nil
}

// Load decodes the document in slot.
//
// Postcondition: Returns an error wrapping ErrSlotNotFound for an empty slot.
func (s *Slots) Load(ctx context.Context, slot int) (savegame.Value, error) {
	data, err := s.store.Read(ctx, slot)
	if err != nil {
		return savegame.Null(), fmt.Errorf("slot %d: %w", slot, err)
	}
	doc, err := s.codec.Decode(data)
	if err != nil {
		return savegame.Null(), fmt.Errorf("slot %d: %w", slot, err)
	}
	return doc, nil
}

// SlotInfo describes one occupied slot.
type SlotInfo struct {
	Slot int
	savegame.SlotMeta
}

// List returns the summary of every occupied slot. Slots that fail to
// decode are reported in the joined error and left out.
func (s *Slots) List(ctx context.Context) ([]SlotInfo, error) {
	slots, err := s.store.Slots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	var (
		out  []SlotInfo
		errs []error
	)
	for _, n := range slots {
		doc, err := s.Load(ctx, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, SlotInfo{Slot: n, SlotMeta: savegame.ReadMeta(doc)})
	}
	return out, errors.Join(errs...)
}
