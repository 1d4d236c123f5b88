package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsenv/ecs"
)

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{}
}

func (ci *ComponentInspectorComponent) Render(env *ecs.Environment, selected *ecs.Entity) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selected = selected

	if ci.selected == nil {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	if ci.selected.Storage() != env.Storage() {
		imgui.Text(fmt.Sprintf("Entity %d is no longer registered", ci.selected.Id()))
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity ID: %d", ci.selected.Id()))
	if name := ci.selected.Name(); name != "" {
		imgui.Text(fmt.Sprintf("Name: %s", name))
	}
	if imgui.Button("Remove Entity") {
		env.Remove(ci.selected)
		imgui.End()
		return
	}
	imgui.Separator()

	for _, compType := range ci.selected.ComponentTypes() {
		component, err := ci.selected.Get(compType)
		if err != nil {
			continue
		}

		if imgui.TreeNodeStr(compType.String()) {
			if imgui.Button("Remove##" + compType.String()) {
				ci.selected.Remove(compType)
				imgui.TreePop()
				continue
			}
			ci.renderComponent(component, compType.Type())
			imgui.TreePop()
		}
	}

	imgui.End()
}

func (ci *ComponentInspectorComponent) renderComponent(component any, compType reflect.Type) {
	val := reflect.ValueOf(component)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	for _, field := range globalReflectionCache.GetFields(compType) {
		fieldVal := val.Field(field.Index)
		if field.IsPointer && !fieldVal.IsNil() {
			fieldVal = fieldVal.Elem()
		}

		ci.renderField(field.Name, fieldVal, field)
	}
}

// renderField draws an editor for val. Edits are written straight into val,
// which addresses the component's memory.
func (ci *ComponentInspectorComponent) renderField(name string, val reflect.Value, field FieldInfo) {
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	if field.IsPointer && val.Kind() == reflect.Ptr && val.IsNil() {
		imgui.Text(fmt.Sprintf("%s: nil", name))
		return
	}

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) {
			setValue(val, int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(fmt.Sprintf("##%s", name), &v) && v >= 0 {
			setValue(val, uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("##%s", name), &v) {
			setValue(val, float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) {
			setValue(val, v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(fmt.Sprintf("##%s", name), "", &v, imgui.InputTextFlagsNone, nil) {
			setValue(val, v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, nf := range globalReflectionCache.GetFields(val.Type()) {
				nestedVal := val.Field(nf.Index)
				if nf.IsPointer && !nestedVal.IsNil() {
					nestedVal = nestedVal.Elem()
				}
				ci.renderField(nf.Name, nestedVal, nf)
			}
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}

// SetField assigns value to the exported field at index of the struct that
// component points to, converting between numeric kinds. It reports whether
// the assignment happened.
func SetField(component any, index int, value any) bool {
	val := reflect.ValueOf(component)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return false
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct || index < 0 || index >= val.NumField() {
		return false
	}
	return setValue(val.Field(index), value)
}

func setValue(field reflect.Value, value any) bool {
	if !field.CanSet() {
		return false
	}

	switch v := value.(type) {
	case int64:
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			field.SetInt(v)
		default:
			return false
		}
	case uint64:
		switch field.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.SetUint(v)
		default:
			return false
		}
	case float64:
		if field.Kind() != reflect.Float32 && field.Kind() != reflect.Float64 {
			return false
		}
		field.SetFloat(v)
	case bool:
		if field.Kind() != reflect.Bool {
			return false
		}
		field.SetBool(v)
	case string:
		if field.Kind() != reflect.String {
			return false
		}
		field.SetString(v)
	default:
		return false
	}
	return true
}
