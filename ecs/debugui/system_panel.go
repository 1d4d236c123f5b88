package debugui

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsenv/ecs"
)

type SystemInfo struct {
	Type           reflect.Type
	Name           string
	Order          ecs.Order
	Enabled        bool
	ExecutionCount int64
	FailureCount   int64
	AvgDuration    time.Duration
	LastError      string
}

type systemPanelCache struct {
	systems       []SystemInfo
	sortColumn    int
	sortAscending bool
}

func NewSystemPanelComponent() SystemPanelComponent {
	return SystemPanelComponent{
		cache: &systemPanelCache{
			sortColumn:    1,
			sortAscending: true,
		},
	}
}

func (sp *SystemPanelComponent) Render(env *ecs.Environment) {
	if !imgui.BeginV("Systems", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	sp.refresh(env.Scheduler())

	var maxDuration time.Duration
	for _, sys := range sp.cache.systems {
		maxDuration = max(maxDuration, sys.AvgDuration)
	}

	imgui.Text(fmt.Sprintf("Registered: %d  Frame: %d", len(sp.cache.systems), env.Scheduler().Frame()))
	imgui.Separator()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("SystemTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("System")
		imgui.TableSetupColumn("Order")
		imgui.TableSetupColumn("Enabled")
		imgui.TableSetupColumn("Runs")
		imgui.TableSetupColumn("Failures")
		imgui.TableSetupColumn("Avg Time")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sp.cache.sortColumn = int(spec.ColumnIndex())
			sp.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sp.sortSystems()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, sys := range sp.cache.systems {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(sys.Name)
			if imgui.Button("Remove##" + sys.Name) {
				sp.removeSystem(env, sys.Type)
			}

			imgui.TableNextColumn()
			imgui.Text(sys.Order.String())

			imgui.TableNextColumn()
			enabled := sys.Enabled
			if imgui.Checkbox("##enabled"+sys.Name, &enabled) {
				sp.setEnabled(env, sys.Type, enabled)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", sys.ExecutionCount))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", sys.FailureCount))

			imgui.TableNextColumn()
			imgui.Text(sys.AvgDuration.String())

			if maxDuration > 0 {
				barWidth := float32(sys.AvgDuration) / float32(maxDuration) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	if len(sp.removed) > 0 && imgui.TreeNodeStr("Removed Systems") {
		for i := 0; i < len(sp.removed); i++ {
			name := ecs.SystemTypeOf(sp.removed[i]).String()
			imgui.BulletText(name)
			imgui.SameLine()
			if imgui.Button("Restore##" + name) {
				sp.restoreSystem(env, i)
				i--
			}
		}
		imgui.TreePop()
	}

	imgui.End()
}

// refresh rebuilds the rows from the scheduler's current registrations.
func (sp *SystemPanelComponent) refresh(scheduler *ecs.Scheduler) {
	regs := scheduler.Registrations()
	stats := scheduler.Stats()

	sp.cache.systems = sp.cache.systems[:0]
	for i, reg := range regs {
		info := SystemInfo{
			Type:    reg.Type,
			Name:    reg.Name,
			Order:   reg.Order,
			Enabled: reg.Enabled,
		}
		if i < len(stats.Systems) {
			st := stats.Systems[i]
			info.ExecutionCount = st.ExecutionCount
			info.FailureCount = st.FailureCount
			info.AvgDuration = st.AvgDuration
			info.LastError = st.LastError
		}
		sp.cache.systems = append(sp.cache.systems, info)
	}

	sp.sortSystems()
}

func (sp *SystemPanelComponent) sortSystems() {
	column, ascending := sp.cache.sortColumn, sp.cache.sortAscending
	sort.SliceStable(sp.cache.systems, func(i, j int) bool {
		a, b := sp.cache.systems[i], sp.cache.systems[j]
		if !ascending {
			a, b = b, a
		}

		switch column {
		case 0:
			return a.Name < b.Name
		case 2:
			return !a.Enabled && b.Enabled
		case 3:
			return a.ExecutionCount < b.ExecutionCount
		case 4:
			return a.FailureCount < b.FailureCount
		case 5:
			return a.AvgDuration < b.AvgDuration
		default:
			return a.Order < b.Order
		}
	})
}

func (sp *SystemPanelComponent) setEnabled(env *ecs.Environment, systemType reflect.Type, enabled bool) {
	if enabled {
		env.EnableSystem(systemType)
	} else {
		env.DisableSystem(systemType)
	}
}

// removeSystem takes a system out of the scheduler and keeps it so it can be
// restored later.
func (sp *SystemPanelComponent) removeSystem(env *ecs.Environment, systemType reflect.Type) {
	for _, system := range env.Systems() {
		if ecs.SystemTypeOf(system) != systemType {
			continue
		}
		env.ToggleSystem(system)
		sp.removed = append(sp.removed, system)
		return
	}
}

func (sp *SystemPanelComponent) restoreSystem(env *ecs.Environment, index int) {
	system := sp.removed[index]
	sp.removed = append(sp.removed[:index], sp.removed[index+1:]...)
	if !env.IsSystemPresent(ecs.SystemTypeOf(system)) {
		env.ToggleSystem(system)
	}
}
