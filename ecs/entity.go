package ecs

import (
	"slices"

	"github.com/rotisserie/eris"
)

// EntityId identifies an entity inside one Storage. Zero means the id has not
// been assigned yet; Storage.Add replaces it with a generated one.
type EntityId uint64

// Entity is an identity plus at most one component instance per component
// type. Components are stored as pointers, so values returned by Get can be
// mutated in place.
type Entity struct {
	id         EntityId
	name       string
	components map[ComponentType]any

	// storage and mask are only meaningful while the entity is registered
	storage *Storage
	mask    bitmask256
}

// NewEntity creates a detached entity whose id is assigned when it is added
// to a Storage. A later component of the same type replaces an earlier one.
func NewEntity(components ...any) *Entity {
	return NewEntityWithId(0, components...)
}

// NewEntityWithId creates a detached entity with an explicit id.
func NewEntityWithId(id EntityId, components ...any) *Entity {
	e := &Entity{
		id:         id,
		components: make(map[ComponentType]any, len(components)),
	}
	e.AddOrReplace(components...)
	return e
}

// Id returns the entity id, or 0 if it has not been assigned yet.
func (e *Entity) Id() EntityId {
	return e.id
}

// Name returns the optional display name.
func (e *Entity) Name() string {
	return e.name
}

// Named sets the display name and returns the entity for chaining.
func (e *Entity) Named(name string) *Entity {
	e.name = name
	return e
}

// Storage returns the storage the entity is registered in, or nil.
func (e *Entity) Storage() *Storage {
	return e.storage
}

// Add attaches components, failing with ErrDuplicateComponent if any of their
// types is already present. Nothing is attached when it fails.
func (e *Entity) Add(components ...any) error {
	resolved := make([]ComponentType, len(components))
	values := make([]any, len(components))
	for i, comp := range components {
		t, ptr := componentOf(comp)
		if _, ok := e.components[t]; ok || slices.Contains(resolved[:i], t) {
			return eris.Wrapf(ErrDuplicateComponent, "entity %d already has %s", e.id, t)
		}
		resolved[i] = t
		values[i] = ptr
	}

	for i, t := range resolved {
		e.attach(t, values[i])
	}
	return nil
}

// AddOrReplace attaches components, replacing any existing instance of the
// same type.
func (e *Entity) AddOrReplace(components ...any) *Entity {
	for _, comp := range components {
		e.attach(componentOf(comp))
	}
	return e
}

func (e *Entity) attach(t ComponentType, ptr any) {
	_, existed := e.components[t]
	e.components[t] = ptr
	if !existed && e.storage != nil {
		e.storage.componentAdded(e, t)
	}
}

// Remove detaches the component of type t. It reports whether one was present.
func (e *Entity) Remove(t ComponentType) bool {
	if _, ok := e.components[t]; !ok {
		return false
	}
	delete(e.components, t)
	if e.storage != nil {
		e.storage.componentRemoved(e, t)
	}
	return true
}

// Has reports whether a component of type t is attached.
func (e *Entity) Has(t ComponentType) bool {
	_, ok := e.components[t]
	return ok
}

// Get returns the pointer to the attached component of type t.
func (e *Entity) Get(t ComponentType) (any, error) {
	comp, ok := e.components[t]
	if !ok {
		return nil, eris.Wrapf(ErrMissingComponent, "entity %d has no %s", e.id, t)
	}
	return comp, nil
}

// ComponentTypes returns the attached component types sorted by name.
func (e *Entity) ComponentTypes() []ComponentType {
	types := make([]ComponentType, 0, len(e.components))
	for t := range e.components {
		types = append(types, t)
	}
	slices.SortFunc(types, compareComponentTypes)
	return types
}

// ComponentCount returns the number of attached components.
func (e *Entity) ComponentCount() int {
	return len(e.components)
}

// Get returns the component of type T attached to e.
func Get[T any](e *Entity) (*T, error) {
	comp, err := e.Get(TypeOf[T]())
	if err != nil {
		return nil, err
	}
	return comp.(*T), nil
}

// Has reports whether e carries a component of type T.
func Has[T any](e *Entity) bool {
	return e.Has(TypeOf[T]())
}

// Remove detaches the component of type T from e.
func Remove[T any](e *Entity) bool {
	return e.Remove(TypeOf[T]())
}
