package qlearn

import (
	"fmt"
	"slices"
	"sync"
)

// DefaultActions is the default number of recommendation slots.
const DefaultActions = 20

// Projection maps content ids onto the fixed action space.
type Projection interface {
	Action(contentID int64) (int, error)
	Size() int
}

// ModuloProjection assigns content id mod Slots. Distinct ids that agree
// modulo Slots alias onto one slot and share its value estimate.
type ModuloProjection struct {
	Slots int
}

func (p ModuloProjection) Action(contentID int64) (int, error) {
	if p.Slots <= 0 {
		return 0, fmt.Errorf("%w: projection has no slots", ErrActionOverflow)
	}
	if contentID < 0 {
		return 0, fmt.Errorf("%w: negative content id %d", ErrActionOverflow, contentID)
	}
	return int(contentID % int64(p.Slots)), nil
}

func (p ModuloProjection) Size() int { return p.Slots }

// SlotProjection gives every registered content id its own slot. Ids that
// were never registered, or registrations beyond Size, overflow.
type SlotProjection struct {
	mu    sync.RWMutex
	size  int
	slots map[int64]int
}

// NewSlotProjection registers ids in ascending order.
func NewSlotProjection(size int, ids ...int64) (*SlotProjection, error) {
	p := &SlotProjection{size: size, slots: make(map[int64]int, len(ids))}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	for _, id := range slices.Compact(sorted) {
		if _, err := p.Register(id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register assigns the next free slot to id, or returns its existing slot.
func (p *SlotProjection) Register(contentID int64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slot, ok := p.slots[contentID]; ok {
		return slot, nil
	}
	if len(p.slots) >= p.size {
		return 0, fmt.Errorf("%w: %d slots already assigned", ErrActionOverflow, p.size)
	}
	slot := len(p.slots)
	p.slots[contentID] = slot
	return slot, nil
}

func (p *SlotProjection) Action(contentID int64) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	slot, ok := p.slots[contentID]
	if !ok {
		return 0, fmt.Errorf("%w: content %d has no slot", ErrActionOverflow, contentID)
	}
	return slot, nil
}

func (p *SlotProjection) Size() int { return p.size }

// Len returns the number of assigned slots.
func (p *SlotProjection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}
