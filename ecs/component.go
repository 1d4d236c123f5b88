package ecs

import (
	"reflect"
	"slices"
	"strings"
	"unsafe"
)

// MaxComponentTypes is the number of distinct component types a single
// ComponentRegistry can hold.
const MaxComponentTypes = 256

// ComponentType identifies a component by its Go type. Pointer types resolve
// to their element type, so *Position and Position are the same component.
type ComponentType struct {
	rtype reflect.Type
}

// TypeOf returns the ComponentType for T.
func TypeOf[T any]() ComponentType {
	return componentTypeFor(reflect.TypeFor[T]())
}

func componentTypeFor(t reflect.Type) ComponentType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	validateComponentKind(t)
	return ComponentType{rtype: t}
}

// validateComponentKind panics for kinds that cannot be used as components.
// Components can be structs or primitives (int, string, etc.) but not
// pointers, maps, channels, or functions.
func validateComponentKind(t reflect.Type) {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, functions or interfaces: " + t.String())
	}
}

// String returns the Go type name of the component.
func (c ComponentType) String() string {
	if c.rtype == nil {
		return "<nil>"
	}
	return c.rtype.String()
}

// Type returns the underlying reflect.Type.
func (c ComponentType) Type() reflect.Type {
	return c.rtype
}

func (c ComponentType) id() uintptr {
	t := c.rtype
	return uintptr((*iface)(unsafe.Pointer(&t)).data)
}

// compareComponentTypes orders by type name, then by type identity so two
// distinct types sharing a name still sort deterministically.
func compareComponentTypes(a, b ComponentType) int {
	if c := strings.Compare(a.String(), b.String()); c != 0 {
		return c
	}
	switch {
	case a.id() < b.id():
		return -1
	case a.id() > b.id():
		return 1
	}
	return 0
}

func sortedTypes(types []ComponentType) []ComponentType {
	out := slices.Clone(types)
	slices.SortFunc(out, compareComponentTypes)
	return slices.Compact(out)
}

// componentOf resolves the ComponentType of a component value and returns
// the pointer under which it is stored. Values are copied into a fresh heap
// slot; pointers are kept as-is.
func componentOf(component any) (ComponentType, any) {
	if component == nil {
		panic("cannot attach a nil component")
	}

	rtype := reflect.TypeOf(component)
	if rtype.Kind() == reflect.Ptr {
		if reflect.ValueOf(component).IsNil() {
			panic("cannot attach a nil component pointer: " + rtype.String())
		}
		return componentTypeFor(rtype), component
	}

	validateComponentKind(rtype)
	ptr := reflect.New(rtype)
	ptr.Elem().Set(reflect.ValueOf(component))
	return ComponentType{rtype: rtype}, ptr.Interface()
}

// ComponentRegistry assigns each component type a dense bit id used by entity
// masks and query plans. Each Environment has its own registry unless one is
// shared explicitly through WithRegistry.
type ComponentRegistry struct {
	ids   map[ComponentType]uint8
	types []ComponentType
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		ids: make(map[ComponentType]uint8),
	}
}

// RegisterComponent registers T with the registry and returns its type.
// Registering is optional, types are registered on first use, but doing it
// up front keeps bit ids stable across runs.
func RegisterComponent[T any](r *ComponentRegistry) ComponentType {
	t := TypeOf[T]()
	r.Register(t)
	return t
}

// Register returns the bit id of t, assigning the next free one if t is new.
func (r *ComponentRegistry) Register(t ComponentType) uint8 {
	if id, ok := r.ids[t]; ok {
		return id
	}
	if len(r.types) >= MaxComponentTypes {
		panic("too many component types registered, cannot add " + t.String())
	}

	id := uint8(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

func (r *ComponentRegistry) lookup(t ComponentType) (uint8, bool) {
	id, ok := r.ids[t]
	return id, ok
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.types)
}

// Types returns the registered component types in registration order.
func (r *ComponentRegistry) Types() []ComponentType {
	return slices.Clone(r.types)
}
