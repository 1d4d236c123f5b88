package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// SourceImport turns external objects, such as the objects of a level file,
// into entities. Each As call converts the sources selected by the preceding
// condition and adds the resulting entities to the environment.
//
//	ecs.ImportSource(env, objects...).
//		When(isPlayer).As(newPlayer).
//		UsingIndex(objectType).
//			When("coin").As(newCoin).
//			When("door").As(newDoor).
//		StopUsingIndex()
type SourceImport[T any] struct {
	env      *Environment
	sources  []T
	imported int
	errs     []error
}

// ImportSource starts an import of the given sources into env.
func ImportSource[T any](env *Environment, sources ...T) *SourceImport[T] {
	return &SourceImport[T]{
		env:     env,
		sources: sources,
	}
}

// As converts every source. A nil result is skipped.
func (si *SourceImport[T]) As(convert func(T) *Entity) *SourceImport[T] {
	return si.when(func(T) bool { return true }, convert)
}

// When restricts the next As to the sources matching condition.
func (si *SourceImport[T]) When(condition func(T) bool) *ConditionalImport[T] {
	return &ConditionalImport[T]{parent: si, condition: condition}
}

// UsingIndex groups sources by key so several conversions can be selected by
// key without re-evaluating the key function.
func (si *SourceImport[T]) UsingIndex(key func(T) string) *IndexedImport[T] {
	index := make(map[string][]T)
	for _, source := range si.sources {
		k := key(source)
		index[k] = append(index[k], source)
	}
	return &IndexedImport[T]{parent: si, index: index}
}

func (si *SourceImport[T]) when(condition func(T) bool, convert func(T) *Entity) *SourceImport[T] {
	for _, source := range si.sources {
		if condition(source) {
			si.add(convert(source))
		}
	}
	return si
}

func (si *SourceImport[T]) add(e *Entity) {
	if e == nil {
		return
	}
	if err := si.env.AddEntity(e); err != nil {
		si.errs = append(si.errs, eris.Wrap(err, "import failed"))
		return
	}
	si.imported++
}

// Imported returns the number of entities added so far.
func (si *SourceImport[T]) Imported() int {
	return si.imported
}

// Err returns every add failure of the import joined, or nil.
func (si *SourceImport[T]) Err() error {
	return errors.Join(si.errs...)
}

// ConditionalImport is the pending conversion of a When call.
type ConditionalImport[T any] struct {
	parent    *SourceImport[T]
	condition func(T) bool
}

// As converts the sources matching the condition.
func (ci *ConditionalImport[T]) As(convert func(T) *Entity) *SourceImport[T] {
	return ci.parent.when(ci.condition, convert)
}

// IndexedImport selects sources by a precomputed key.
type IndexedImport[T any] struct {
	parent *SourceImport[T]
	index  map[string][]T
}

// When selects the sources whose key equals key.
func (ii *IndexedImport[T]) When(key string) *IndexedConversion[T] {
	return &IndexedConversion[T]{parent: ii, key: key}
}

// StopUsingIndex returns to the unindexed import.
func (ii *IndexedImport[T]) StopUsingIndex() *SourceImport[T] {
	return ii.parent
}

// IndexedConversion is the pending conversion of an indexed When call.
type IndexedConversion[T any] struct {
	parent *IndexedImport[T]
	key    string
}

// As converts the sources stored under the key.
func (ic *IndexedConversion[T]) As(convert func(T) *Entity) *IndexedImport[T] {
	for _, source := range ic.parent.index[ic.key] {
		ic.parent.parent.add(convert(source))
	}
	return ic.parent
}
