// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// It satisfies loop.Overlay, so a loop.Game can drive the ImGui frame
// around each environment update.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. ImGui's ini file is
// disabled so window layout is not persisted between runs.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// BeforeUpdate begins the ImGui frame.
func (b *ImguiBackend) BeforeUpdate() {
	b.BeginFrame()
}

// AfterUpdate ends the ImGui frame.
func (b *ImguiBackend) AfterUpdate() {
	b.EndFrame()
}

func (b *ImguiBackend) DrawOverlay(screen *ebiten.Image) {
	b.Draw(screen)
}

func (b *ImguiBackend) LayoutOverlay(outsideWidth, outsideHeight int) {
	b.Layout(outsideWidth, outsideHeight)
}
