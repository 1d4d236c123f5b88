package ecs

import (
	"slices"
	"strings"
)

// Archetype is an immutable predicate over component types: every present
// type must be attached and no absent type may be. Archetypes built from the
// same type sets are equal and share a Key, so they can be declared once and
// reused across frames or rebuilt on the fly.
type Archetype struct {
	present []ComponentType
	absent  []ComponentType
	key     uint64
}

// Of returns an archetype requiring all of the given types.
func Of(types ...ComponentType) Archetype {
	a := Archetype{present: sortedTypes(types)}
	a.key = hashArchetype(a.present, a.absent)
	return a
}

// Without returns a copy of a that also rejects entities carrying any of the
// given types.
func (a Archetype) Without(types ...ComponentType) Archetype {
	absent := append(slices.Clone(a.absent), types...)
	b := Archetype{
		present: a.present,
		absent:  sortedTypes(absent),
	}
	b.key = hashArchetype(b.present, b.absent)
	return b
}

// Matches reports whether e satisfies the archetype.
func (a Archetype) Matches(e *Entity) bool {
	for _, t := range a.present {
		if !e.Has(t) {
			return false
		}
	}
	for _, t := range a.absent {
		if e.Has(t) {
			return false
		}
	}
	return true
}

// Present returns the required types.
func (a Archetype) Present() []ComponentType {
	return slices.Clone(a.present)
}

// Absent returns the excluded types.
func (a Archetype) Absent() []ComponentType {
	return slices.Clone(a.absent)
}

// Key returns a hash of the archetype's type sets.
func (a Archetype) Key() uint64 {
	return a.key
}

// Equal reports whether both archetypes have the same type sets.
func (a Archetype) Equal(b Archetype) bool {
	return a.key == b.key && slices.Equal(a.present, b.present) && slices.Equal(a.absent, b.absent)
}

func (a Archetype) String() string {
	var sb strings.Builder
	sb.WriteString("Archetype[")
	for i, t := range a.present {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	if len(a.absent) > 0 {
		sb.WriteString(" without ")
		for i, t := range a.absent {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// hashArchetype generates an FNV-1a hash over two sorted type sets.
func hashArchetype(present, absent []ComponentType) uint64 {
	const (
		offset uint64 = 14695981039346656037
		prime  uint64 = 1099511628211
	)

	h := offset
	mix := func(v uint64) {
		for i := 0; i < 8; i++ {
			h ^= v & 0xFF
			h *= prime
			v >>= 8
		}
	}

	for _, t := range present {
		mix(uint64(t.id()))
	}
	// separator so Of(A).Without(B) and Of(A, B) differ
	mix(0xFFFFFFFFFFFFFFFF)
	for _, t := range absent {
		mix(uint64(t.id()))
	}
	return h
}
