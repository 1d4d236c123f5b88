package debugui

import "github.com/plus3/ecsenv/ecs"

// debugPanels selects the debug UI entity. Panels left out when spawning are
// simply not drawn.
type debugPanels struct {
	*DebugUI
	Browser   *EntityBrowserComponent      `ecs:"optional"`
	Inspector *ComponentInspectorComponent `ecs:"optional"`
	Systems   *SystemPanelComponent        `ecs:"optional"`
	Queries   *QueryTesterComponent        `ecs:"optional"`
	Stats     *PerformanceStatsComponent   `ecs:"optional"`
}

// DebugUISystem draws the debug panels of every DebugUI entity.
type DebugUISystem struct {
	panels *ecs.View[debugPanels]
}

func (s *DebugUISystem) Order() ecs.Order {
	return ecs.OrderPresentationUI
}

func (s *DebugUISystem) Execute(frame *ecs.UpdateFrame) error {
	if s.panels == nil {
		s.panels = ecs.NewView[debugPanels](frame.Env.Storage())
	}

	env := frame.Env
	for panels := range s.panels.Values() {
		frame.Commands.Defer(func() {
			var selected *ecs.Entity
			if panels.Browser != nil {
				panels.Browser.Render(env)
				selected = panels.Browser.SelectedEntity()
			}
			if panels.Inspector != nil {
				panels.Inspector.Render(env, selected)
			}
			if panels.Systems != nil {
				panels.Systems.Render(env)
			}
			if panels.Queries != nil {
				panels.Queries.Render(env)
			}
			if panels.Stats != nil {
				panels.Stats.Render(env)
			}
		})
	}
	return nil
}

// SpawnDebugUI spawns the entity carrying every debug panel and registers the
// systems that draw them.
func SpawnDebugUI(env *ecs.Environment) (*ecs.Entity, error) {
	browser := NewEntityBrowserComponent(100)
	inspector := NewComponentInspectorComponent()
	systems := NewSystemPanelComponent()
	queries := NewQueryTesterComponent(50)
	stats := NewPerformanceStatsComponent(120)

	e, err := env.Spawn(&DebugUI{}, &browser, &inspector, &systems, &queries, &stats)
	if err != nil {
		return nil, err
	}
	e.Named("debug-ui")

	env.AddSystems(&ImguiSystem{}, &DebugUISystem{})
	return e, nil
}

// RegisterDebugUIComponents reserves registry slots for the debug UI
// component types.
func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[DebugUI](registry)
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[ImguiInputState](registry)
	ecs.RegisterComponent[EntityBrowserComponent](registry)
	ecs.RegisterComponent[ComponentInspectorComponent](registry)
	ecs.RegisterComponent[SystemPanelComponent](registry)
	ecs.RegisterComponent[QueryTesterComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
}
