package debugui

import (
	"reflect"
	"sync"
)

type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
	IsStruct  bool
	IsSlice   bool
	IsMap     bool
	// Editable is set for the scalar kinds the inspector has an input for.
	Editable bool
}

// ReflectionCache remembers the exported fields of component types so the
// inspector does not walk reflect.Type every frame.
type ReflectionCache struct {
	mu         sync.RWMutex
	fieldCache map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		fieldCache: make(map[reflect.Type][]FieldInfo),
	}
}

func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fieldCache[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	fields := exportedFields(t)

	rc.mu.Lock()
	rc.fieldCache[t] = fields
	rc.mu.Unlock()
	return fields
}

func exportedFields(t reflect.Type) []FieldInfo {
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []FieldInfo
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldType := field.Type
		isPointer := fieldType.Kind() == reflect.Ptr
		if isPointer {
			fieldType = fieldType.Elem()
		}

		fields = append(fields, FieldInfo{
			Name:      field.Name,
			Type:      fieldType,
			Index:     i,
			IsPointer: isPointer,
			IsStruct:  fieldType.Kind() == reflect.Struct,
			IsSlice:   fieldType.Kind() == reflect.Slice,
			IsMap:     fieldType.Kind() == reflect.Map,
			Editable:  isEditableKind(fieldType.Kind()),
		})
	}
	return fields
}

func isEditableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var globalReflectionCache = NewReflectionCache()
