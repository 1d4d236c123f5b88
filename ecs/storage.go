package ecs

import (
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

const (
	// compactMinHoles is the number of removed slots tolerated before the
	// entity list is compacted.
	compactMinHoles = 64
)

// Storage is the entity store. It owns the canonical, insertion-ordered list
// of entities and indexes them by component type so archetype queries only
// visit entities carrying the rarest required component.
//
// Storage is not safe for concurrent use; it assumes a single driving
// goroutine, like the rest of the environment.
type Storage struct {
	registry *ComponentRegistry

	entities []*Entity // insertion order, nil marks a removed slot
	holes    int
	slots    *intmap.Map[EntityId, int]
	postings []*intmap.Set[EntityId] // indexed by component bit id

	plans  map[uint64]*queryPlan
	nextId EntityId
}

// NewStorage creates an empty entity store backed by the given registry.
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		registry: registry,
		slots:    intmap.New[EntityId, int](256),
		plans:    make(map[uint64]*queryPlan),
	}
}

// Registry returns the component registry used for indexing.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Add registers an entity. Entities without an id receive the next generated
// one. It fails with ErrDuplicateId if the id is taken and with
// ErrEntityOwned if the entity is registered in another storage.
func (s *Storage) Add(e *Entity) error {
	if e == nil {
		return eris.Wrap(ErrNilEntity, "cannot add entity")
	}
	if e.storage != nil && e.storage != s {
		return eris.Wrapf(ErrEntityOwned, "entity %d", e.id)
	}

	if e.id == 0 {
		e.id = s.generateId()
	} else if s.slots.Has(e.id) {
		return eris.Wrapf(ErrDuplicateId, "entity id %d", e.id)
	}

	s.slots.Put(e.id, len(s.entities))
	s.entities = append(s.entities, e)

	e.storage = s
	e.mask = bitmask256{}
	for t := range e.components {
		s.componentAdded(e, t)
	}
	return nil
}

// generateId returns the next id that is not currently in use. Generated ids
// increase monotonically and are never handed out twice by one storage.
func (s *Storage) generateId() EntityId {
	for {
		s.nextId++
		if !s.slots.Has(s.nextId) {
			return s.nextId
		}
	}
}

// Remove unregisters an entity and drops it from every index. Removing an
// entity that is not registered here is a no-op that returns false.
func (s *Storage) Remove(e *Entity) bool {
	if e == nil || e.storage != s {
		return false
	}

	slot, ok := s.slots.Get(e.id)
	if !ok {
		return false
	}

	s.slots.Del(e.id)
	s.entities[slot] = nil
	s.holes++

	for bit := range s.postings {
		if e.mask.has(uint8(bit)) {
			s.postings[bit].Del(e.id)
		}
	}
	e.storage = nil
	e.mask = bitmask256{}

	if s.holes >= compactMinHoles && s.holes*2 >= len(s.entities) {
		s.Compact()
	}
	return true
}

// RemoveById removes the entity with the given id, if present.
func (s *Storage) RemoveById(id EntityId) bool {
	e, ok := s.FindById(id)
	if !ok {
		return false
	}
	return s.Remove(e)
}

// Clear removes every entity.
func (s *Storage) Clear() {
	for _, e := range s.entities {
		if e != nil {
			e.storage = nil
			e.mask = bitmask256{}
		}
	}
	s.entities = nil
	s.holes = 0
	s.slots.Clear()
	for _, posting := range s.postings {
		posting.Clear()
	}
}

// Compact drops removed slots from the entity list, keeping insertion order.
func (s *Storage) Compact() {
	if s.holes == 0 {
		return
	}

	live := make([]*Entity, 0, len(s.entities)-s.holes)
	for _, e := range s.entities {
		if e == nil {
			continue
		}
		s.slots.Put(e.id, len(live))
		live = append(live, e)
	}
	s.entities = live
	s.holes = 0
}

// FindById returns the entity with the given id.
func (s *Storage) FindById(id EntityId) (*Entity, bool) {
	slot, ok := s.slots.Get(id)
	if !ok {
		return nil, false
	}
	return s.entities[slot], true
}

// ForcedFindById returns the entity with the given id or ErrNotFound.
func (s *Storage) ForcedFindById(id EntityId) (*Entity, error) {
	e, ok := s.FindById(id)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "entity id %d", id)
	}
	return e, nil
}

// Len returns the number of registered entities.
func (s *Storage) Len() int {
	return s.slots.Len()
}

// All returns every registered entity in insertion order.
func (s *Storage) All() []*Entity {
	result := make([]*Entity, 0, s.Len())
	for _, e := range s.entities {
		if e != nil {
			result = append(result, e)
		}
	}
	return result
}

// Query returns a freshly built list of the entities matching a, in insertion
// order. Later structural changes do not affect a returned list.
func (s *Storage) Query(a Archetype) []*Entity {
	return s.collect(a, -1)
}

// Contains reports whether at least one entity matches a.
func (s *Storage) Contains(a Archetype) bool {
	return len(s.collect(a, 1)) > 0
}

// TrySingleton returns the only entity matching a, or false if zero or
// several entities match.
func (s *Storage) TrySingleton(a Archetype) (*Entity, bool) {
	matches := s.collect(a, 2)
	if len(matches) != 1 {
		return nil, false
	}
	return matches[0], true
}

// ForcedSingleton returns the only entity matching a or ErrAmbiguousOrMissing.
func (s *Storage) ForcedSingleton(a Archetype) (*Entity, error) {
	matches := s.collect(a, 2)
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, eris.Wrapf(ErrAmbiguousOrMissing, "no entity matches %s", a)
	default:
		return nil, eris.Wrapf(ErrAmbiguousOrMissing, "more than one entity matches %s", a)
	}
}

// collect gathers up to limit matches (all of them when limit < 0).
func (s *Storage) collect(a Archetype, limit int) []*Entity {
	plan := s.plan(a)
	if plan.unsatisfied || limit == 0 {
		return []*Entity{}
	}

	seed := s.smallestPosting(plan)
	if seed == nil || seed.Len()*2 >= s.Len() {
		return s.scan(plan, limit)
	}

	slots := make([]int, 0, seed.Len())
	seed.ForEach(func(id EntityId) bool {
		if slot, ok := s.slots.Get(id); ok {
			slots = append(slots, slot)
		}
		return true
	})
	slices.Sort(slots)

	result := make([]*Entity, 0, len(slots))
	for _, slot := range slots {
		e := s.entities[slot]
		if !plan.matches(e) {
			continue
		}
		result = append(result, e)
		if len(result) == limit {
			break
		}
	}
	return result
}

func (s *Storage) scan(plan *queryPlan, limit int) []*Entity {
	result := make([]*Entity, 0)
	for _, e := range s.entities {
		if e == nil || !plan.matches(e) {
			continue
		}
		result = append(result, e)
		if len(result) == limit {
			break
		}
	}
	return result
}

func (s *Storage) smallestPosting(plan *queryPlan) *intmap.Set[EntityId] {
	var smallest *intmap.Set[EntityId]
	for _, bit := range plan.required {
		posting := s.posting(bit)
		if smallest == nil || posting.Len() < smallest.Len() {
			smallest = posting
		}
	}
	return smallest
}

func (s *Storage) posting(bit uint8) *intmap.Set[EntityId] {
	for int(bit) >= len(s.postings) {
		s.postings = append(s.postings, intmap.NewSet[EntityId](64))
	}
	return s.postings[bit]
}

// countWith returns the number of entities carrying t.
func (s *Storage) countWith(t ComponentType) int {
	bit, ok := s.registry.lookup(t)
	if !ok {
		return 0
	}
	return s.posting(bit).Len()
}

// componentAdded is called when e gains a component type while registered.
func (s *Storage) componentAdded(e *Entity, t ComponentType) {
	bit := s.registry.Register(t)
	e.mask.set(bit)
	s.posting(bit).Add(e.id)
}

// componentRemoved is called when e loses a component type while registered.
func (s *Storage) componentRemoved(e *Entity, t ComponentType) {
	bit, ok := s.registry.lookup(t)
	if !ok {
		return
	}
	e.mask.unset(bit)
	s.posting(bit).Del(e.id)
}
