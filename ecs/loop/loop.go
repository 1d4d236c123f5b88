// Package loop drives an ecs.Environment from an Ebiten game loop.
package loop

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/ecsenv/ecs"
)

// Overlay is drawn on top of the game and gets a chance to wrap every
// environment update, the way an ImGui backend begins and ends its frame.
type Overlay interface {
	BeforeUpdate()
	AfterUpdate()
	DrawOverlay(screen *ebiten.Image)
	LayoutOverlay(outsideWidth, outsideHeight int)
}

// Game implements ebiten.Game. Each tick runs one environment update with a
// fixed delta time of 1/TPS seconds.
type Game struct {
	Env *ecs.Environment

	// TPS is the tick rate. Zero means ebiten.DefaultTPS.
	TPS int

	// Width and Height fix the logical screen size. When either is zero the
	// screen follows the window size.
	Width, Height int

	// SlowFrame, when positive, logs every update that takes longer.
	SlowFrame time.Duration

	// Renderer draws the world. Optional.
	Renderer func(screen *ebiten.Image)
	Overlay  Overlay
	Logger   *log.Logger

	stopped bool
}

// Update runs one environment pass. An error from the environment, which
// only happens under ecs.FailAbort, ends the game.
func (g *Game) Update() error {
	if g.stopped {
		return ebiten.Termination
	}

	if g.Overlay != nil {
		g.Overlay.BeforeUpdate()
	}

	start := time.Now()
	err := g.Env.Update(g.DeltaTime())
	elapsed := time.Since(start)

	if g.Overlay != nil {
		g.Overlay.AfterUpdate()
	}

	if g.SlowFrame > 0 && elapsed > g.SlowFrame {
		g.logger().Printf("loop: frame %d took %s (budget %s)", g.Env.Scheduler().Frame(), elapsed, g.SlowFrame)
	}
	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.Renderer != nil {
		g.Renderer(screen)
	}
	if g.Overlay != nil {
		g.Overlay.DrawOverlay(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.Overlay != nil {
		g.Overlay.LayoutOverlay(outsideWidth, outsideHeight)
	}
	if g.Width > 0 && g.Height > 0 {
		return g.Width, g.Height
	}
	return outsideWidth, outsideHeight
}

// DeltaTime returns the fixed update step in seconds.
func (g *Game) DeltaTime() float64 {
	return 1.0 / float64(g.tps())
}

// Stop makes the next Update end the game.
func (g *Game) Stop() {
	g.stopped = true
}

func (g *Game) tps() int {
	if g.TPS <= 0 {
		return ebiten.DefaultTPS
	}
	return g.TPS
}

func (g *Game) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return g.Env.Logger()
}

// Run opens the window and blocks until the game ends.
func Run(game *Game, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(game.tps())
	if game.Width > 0 && game.Height > 0 {
		ebiten.SetWindowSize(game.Width, game.Height)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(game)
}
