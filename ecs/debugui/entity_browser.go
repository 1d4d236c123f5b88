package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsenv/ecs"
)

// refreshInterval is the number of renders after which the browser rebuilds
// its entity list even if the entity count did not change.
const refreshInterval = 30

type EntityInfo struct {
	Entity         *ecs.Entity
	ID             ecs.EntityId
	Name           string
	ComponentTypes []string
	ComponentCount int
}

type entityBrowserCache struct {
	entities        []EntityInfo
	lastEntityCount int
	rendersSince    int
	sortColumn      int
	sortAscending   bool
}

func NewEntityBrowserComponent(maxEntitiesPerPage int) EntityBrowserComponent {
	return EntityBrowserComponent{
		cache: &entityBrowserCache{
			lastEntityCount: -1,
			sortColumn:      0,
			sortAscending:   true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (eb *EntityBrowserComponent) Render(env *ecs.Environment) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded(env)

	if imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil) {
		eb.currentPage = 0
	}
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		eb.cache.entities = nil
	}

	filteredEntities := eb.filteredEntities()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, -30), 0) {
		imgui.TableSetupColumn("Entity ID")
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			eb.sortEntities()
			sortSpecs.SetSpecsDirty(false)
		}

		start, end := eb.pageBounds(len(filteredEntities))
		for _, entity := range filteredEntities[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := eb.selected == entity.Entity
			if imgui.SelectableBoolV(fmt.Sprintf("%d", entity.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selected = entity.Entity
			}

			imgui.TableNextColumn()
			imgui.Text(entity.Name)

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.ComponentCount))
		}

		imgui.EndTable()
	}

	if len(filteredEntities) > eb.maxEntitiesPerPage {
		totalPages := eb.totalPages(len(filteredEntities))
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filteredEntities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filteredEntities)))
	}

	imgui.End()
}

func (eb *EntityBrowserComponent) rebuildCacheIfNeeded(env *ecs.Environment) {
	eb.cache.rendersSince++
	currentEntityCount := env.EntityCount()
	if eb.cache.lastEntityCount != currentEntityCount || eb.cache.rendersSince >= refreshInterval {
		eb.cache.entities = nil
		eb.cache.lastEntityCount = currentEntityCount
	}

	if eb.cache.entities == nil {
		eb.rebuildCache(env)
	}
}

func (eb *EntityBrowserComponent) rebuildCache(env *ecs.Environment) {
	all := env.AllEntities()
	eb.cache.entities = make([]EntityInfo, 0, len(all))
	eb.cache.rendersSince = 0

	for _, e := range all {
		types := e.ComponentTypes()
		componentTypes := make([]string, len(types))
		for i, t := range types {
			componentTypes[i] = t.String()
		}

		eb.cache.entities = append(eb.cache.entities, EntityInfo{
			Entity:         e,
			ID:             e.Id(),
			Name:           e.Name(),
			ComponentTypes: componentTypes,
			ComponentCount: len(componentTypes),
		})
	}

	if eb.selected != nil && eb.selected.Storage() == nil {
		eb.selected = nil
	}

	eb.sortEntities()

	if pages := eb.totalPages(len(eb.cache.entities)); eb.currentPage >= pages {
		eb.currentPage = max(0, pages-1)
	}
}

func (eb *EntityBrowserComponent) sortEntities() {
	column, ascending := eb.cache.sortColumn, eb.cache.sortAscending
	sort.SliceStable(eb.cache.entities, func(i, j int) bool {
		a, b := eb.cache.entities[i], eb.cache.entities[j]
		if !ascending {
			a, b = b, a
		}

		switch column {
		case 1:
			return a.Name < b.Name
		case 2:
			return strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
		case 3:
			return a.ComponentCount < b.ComponentCount
		default:
			return a.ID < b.ID
		}
	})
}

func (eb *EntityBrowserComponent) filteredEntities() []EntityInfo {
	if eb.filterText == "" {
		return eb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(eb.cache.entities))
	filterLower := strings.ToLower(eb.filterText)

	for _, entity := range eb.cache.entities {
		idStr := fmt.Sprintf("%d", entity.ID)
		nameStr := strings.ToLower(entity.Name)
		componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))

		if !strings.Contains(idStr, filterLower) &&
			!strings.Contains(nameStr, filterLower) &&
			!strings.Contains(componentsStr, filterLower) {
			continue
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

func (eb *EntityBrowserComponent) totalPages(count int) int {
	if eb.maxEntitiesPerPage <= 0 {
		return 1
	}
	return max(1, (count+eb.maxEntitiesPerPage-1)/eb.maxEntitiesPerPage)
}

func (eb *EntityBrowserComponent) pageBounds(count int) (int, int) {
	if eb.maxEntitiesPerPage <= 0 {
		return 0, count
	}
	start := min(eb.currentPage*eb.maxEntitiesPerPage, count)
	end := min(start+eb.maxEntitiesPerPage, count)
	return start, end
}

// SelectedEntity returns the entity picked in the browser, or nil.
func (eb *EntityBrowserComponent) SelectedEntity() *ecs.Entity {
	return eb.selected
}

// Select picks an entity, as clicking its row does.
func (eb *EntityBrowserComponent) Select(e *ecs.Entity) {
	eb.selected = e
}
