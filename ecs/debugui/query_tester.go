package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsenv/ecs"
)

func NewQueryTesterComponent(limit int) QueryTesterComponent {
	return QueryTesterComponent{
		required: make(map[string]bool),
		excluded: make(map[string]bool),
		limit:    limit,
	}
}

func (qt *QueryTesterComponent) Render(env *ecs.Environment) {
	if !imgui.BeginV("Query Tester", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	types := env.Storage().Registry().Types()

	if imgui.Button("Clear All") {
		clear(qt.required)
		clear(qt.excluded)
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("QueryTypeTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Component")
		imgui.TableSetupColumn("With")
		imgui.TableSetupColumn("Without")
		imgui.TableHeadersRow()

		for _, t := range types {
			name := t.String()
			imgui.TableNextRow()

			imgui.TableSetColumnIndex(0)
			imgui.Text(name)

			imgui.TableSetColumnIndex(1)
			with := qt.required[name]
			if imgui.Checkbox("##with"+name, &with) {
				qt.toggle(qt.required, name, with)
			}

			imgui.TableSetColumnIndex(2)
			without := qt.excluded[name]
			if imgui.Checkbox("##without"+name, &without) {
				qt.toggle(qt.excluded, name, without)
			}
		}

		imgui.EndTable()
	}

	imgui.Separator()

	archetype, ok := qt.Archetype(types)
	if !ok {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	matches := env.FetchAll(archetype)
	imgui.Text(archetype.String())
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matches)))

	if imgui.TreeNodeStr("Matches") {
		for _, e := range matches[:min(len(matches), qt.limit)] {
			imgui.BulletText(describeEntity(e))
		}
		if len(matches) > qt.limit {
			imgui.Text(fmt.Sprintf("... and %d more", len(matches)-qt.limit))
		}
		imgui.TreePop()
	}

	imgui.End()
}

func (qt *QueryTesterComponent) toggle(set map[string]bool, name string, on bool) {
	if on {
		set[name] = true
	} else {
		delete(set, name)
	}
}

// Archetype builds the archetype selected in the panel out of the known
// component types. It returns false when nothing is selected.
func (qt *QueryTesterComponent) Archetype(types []ecs.ComponentType) (ecs.Archetype, bool) {
	var present, absent []ecs.ComponentType
	for _, t := range types {
		name := t.String()
		if qt.required[name] {
			present = append(present, t)
		}
		if qt.excluded[name] {
			absent = append(absent, t)
		}
	}

	if len(present) == 0 && len(absent) == 0 {
		return ecs.Archetype{}, false
	}
	return ecs.Of(present...).Without(absent...), true
}

func describeEntity(e *ecs.Entity) string {
	if name := e.Name(); name != "" {
		return fmt.Sprintf("%d (%s)", e.Id(), name)
	}
	return fmt.Sprintf("%d", e.Id())
}
