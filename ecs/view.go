package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

type fieldRole uint8

const (
	fieldRequired fieldRole = iota
	fieldOptional
	fieldExcluded
)

// View is a typed query over a Storage. The type T must be a struct whose
// fields are pointers to component types:
//
//	type movable struct {
//		*Position
//		*Velocity
//		Sprite *Sprite  `ecs:"optional"`
//		Frozen *Frozen  `ecs:"exclude"`
//	}
//
// Embedded fields are always required. Named fields can be marked as optional
// (nil when missing) or exclude (the entity must not carry the component; the
// field is always nil).
type View[T any] struct {
	storage     *Storage
	types       []ComponentType
	roles       []fieldRole
	fieldOffset []uintptr
	archetype   Archetype
}

// NewView creates a view for the given struct type.
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{storage: storage}
	var required, excluded []ComponentType

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		componentType := componentTypeFor(field.Type.Elem())
		role := fieldRequired
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				role = fieldOptional
			case "exclude":
				role = fieldExcluded
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" and \"exclude\" are supported)")
			}
		}

		switch role {
		case fieldRequired:
			required = append(required, componentType)
		case fieldExcluded:
			excluded = append(excluded, componentType)
		}

		v.types = append(v.types, componentType)
		v.roles = append(v.roles, role)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}

	v.archetype = Of(required...)
	if len(excluded) > 0 {
		v.archetype = v.archetype.Without(excluded...)
	}
	return v
}

// Archetype returns the archetype the view selects.
func (v *View[T]) Archetype() Archetype {
	return v.archetype
}

// Fill points the fields of ptr at the components of e. It returns false if
// e does not satisfy the view.
func (v *View[T]) Fill(e *Entity, ptr *T) bool {
	structPtr := unsafe.Pointer(ptr)

	for i, componentType := range v.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		component, ok := e.components[componentType]

		switch {
		case v.roles[i] == fieldExcluded:
			if ok {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
		case !ok:
			if v.roles[i] == fieldRequired {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
		default:
			*(*unsafe.Pointer)(fieldPtr) = dataPointer(component)
		}
	}

	return true
}

// Get returns a populated view struct for e, or nil if e does not satisfy
// the view.
func (v *View[T]) Get(e *Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Iter returns an iterator over a snapshot of the matching entities taken
// when iteration starts.
func (v *View[T]) Iter() iter.Seq2[*Entity, T] {
	return func(yield func(*Entity, T) bool) {
		for _, e := range v.storage.Query(v.archetype) {
			var result T
			if !v.Fill(e, &result) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates and registers an entity from the non-nil fields of data. The
// pointed-to components are attached as-is, not copied.
func (v *View[T]) Spawn(data T) (*Entity, error) {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.types))
	for i, componentType := range v.types {
		if v.roles[i] == fieldExcluded {
			continue
		}

		componentPtr := *(*unsafe.Pointer)(unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i]))
		if componentPtr == nil {
			if v.roles[i] == fieldRequired {
				panic("required component is nil in View.Spawn")
			}
			continue
		}

		components = append(components, reflect.NewAt(componentType.rtype, componentPtr).Interface())
	}

	e := NewEntity(components...)
	if err := v.storage.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}
