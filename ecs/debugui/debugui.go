// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsenv/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton component.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

var imguiItems = ecs.Of(ecs.TypeOf[ImguiItem]())

// ImguiSystem fetches all ImguiItem components and defers their render functions.
// It also updates the ImguiInputState singleton with current input capture state.
type ImguiSystem struct {
	inputState *ecs.Singleton[ImguiInputState]
}

// Order runs the system with the rest of the UI presentation.
func (i *ImguiSystem) Order() ecs.Order {
	return ecs.OrderPresentationUI
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) error {
	if i.inputState == nil {
		singleton, err := ecs.NewSingleton[ImguiInputState](frame.Env.Storage())
		if err != nil {
			return err
		}
		i.inputState = singleton
	}

	if state := i.inputState.Get(); state != nil {
		io := imgui.CurrentIO()
		state.WantCaptureMouse = io.WantCaptureMouse()
		state.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for _, e := range frame.Env.FetchAll(imguiItems) {
		item, err := ecs.Get[ImguiItem](e)
		if err != nil || item.Render == nil {
			continue
		}
		frame.Commands.Defer(item.Render)
	}
	return nil
}
