package ecs

// Singleton provides cached access to a component that exactly one entity
// in the storage carries, such as global game state or configuration.
type Singleton[T any] struct {
	storage   *Storage
	archetype Archetype
	entity    *Entity
}

// NewSingleton creates a Singleton accessor for the given storage. If no
// entity carries T yet, one is spawned with the initializer value, or the
// zero value when none is given.
func NewSingleton[T any](storage *Storage, initializer ...T) (*Singleton[T], error) {
	s := &Singleton[T]{
		storage:   storage,
		archetype: Of(TypeOf[T]()),
	}

	if !storage.Contains(s.archetype) {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		if err := storage.Add(NewEntity(value)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Get returns the singleton component, or nil unless exactly one entity
// carries T.
func (s *Singleton[T]) Get() *T {
	e := s.Entity()
	if e == nil {
		return nil
	}
	comp, err := Get[T](e)
	if err != nil {
		return nil
	}
	return comp
}

// Entity returns the entity carrying T, or nil unless exactly one does.
func (s *Singleton[T]) Entity() *Entity {
	t := s.archetype.present[0]
	if s.entity != nil && s.entity.storage == s.storage && s.entity.Has(t) && s.storage.countWith(t) == 1 {
		return s.entity
	}

	e, ok := s.storage.TrySingleton(s.archetype)
	if !ok {
		s.entity = nil
		return nil
	}
	s.entity = e
	return e
}

// Exists reports whether exactly one entity carries T.
func (s *Singleton[T]) Exists() bool {
	return s.Entity() != nil
}
