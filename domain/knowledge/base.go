// Package knowledge provides an agent's beliefs about heating systems and
// the relative-agreement rule agents use to influence each other.
package knowledge

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/heatshift/domain/heating"
)

// Base is the ordered set of systems an agent knows, at most one per type.
// It is owned by a single agent and not safe for concurrent use.
type Base struct {
	systems []*heating.System
}

// NewBase creates a base holding the given systems.
func NewBase(systems ...*heating.System) *Base {
	b := &Base{}
	for _, s := range systems {
		b.Put(s)
	}
	return b
}

// Len returns the number of known systems.
func (b *Base) Len() int {
	return len(b.systems)
}

// Get returns the known system of a type, or nil.
func (b *Base) Get(t heating.Type) *heating.System {
	if i := b.index(t); i >= 0 {
		return b.systems[i]
	}
	return nil
}

// Has reports whether a type is known.
func (b *Base) Has(t heating.Type) bool {
	return b.index(t) >= 0
}

// Put stores s, replacing a known system of the same type in place.
func (b *Base) Put(s *heating.System) {
	if s == nil {
		return
	}
	if i := b.index(s.Type); i >= 0 {
		b.systems[i] = s
		return
	}
	b.systems = append(b.systems, s)
}

// Remove forgets a type.
func (b *Base) Remove(t heating.Type) {
	if i := b.index(t); i >= 0 {
		b.systems = slices.Delete(b.systems, i, i+1)
	}
}

// All returns the known systems in learning order.
func (b *Base) All() []*heating.System {
	return slices.Clone(b.systems)
}

// Types returns the known types in learning order.
func (b *Base) Types() []heating.Type {
	out := make([]heating.Type, len(b.systems))
	for i, s := range b.systems {
		out[i] = s.Type
	}
	return out
}

// Clone returns a deep copy.
func (b *Base) Clone() *Base {
	c := &Base{systems: make([]*heating.System, len(b.systems))}
	for i, s := range b.systems {
		c.systems[i] = s.Clone()
	}
	return c
}

// Validate checks every estimate of every known system.
func (b *Base) Validate() error {
	for _, s := range b.systems {
		if err := s.Params.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Type, err)
		}
	}
	return nil
}

// MarshalJSON encodes the base as an ordered list.
func (b *Base) MarshalJSON() ([]byte, error) {
	if b.systems == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.systems)
}

// UnmarshalJSON decodes an ordered list.
func (b *Base) UnmarshalJSON(data []byte) error {
	var systems []*heating.System
	if err := json.Unmarshal(data, &systems); err != nil {
		return err
	}
	b.systems = nil
	for _, s := range systems {
		if b.Has(s.Type) {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.Type)
		}
		b.Put(s)
	}
	return nil
}

func (b *Base) index(t heating.Type) int {
	return slices.IndexFunc(b.systems, func(s *heating.System) bool { return s.Type == t })
}
