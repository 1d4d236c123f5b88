package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsenv/ecs"
)

func NewPerformanceStatsComponent(historyFrames int) PerformanceStatsComponent {
	return PerformanceStatsComponent{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
		frameIndex:    0,
	}
}

func (ps *PerformanceStatsComponent) Render(env *ecs.Environment) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.record(ps.timer.GetDeltaTime())

	stats := env.Storage().CollectStats()
	schedulerStats := env.Scheduler().Stats()

	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Component Types: %d", stats.ComponentTypeCount))
	imgui.Text(fmt.Sprintf("Cached Query Plans: %d", stats.CachedPlanCount))
	imgui.Text(fmt.Sprintf("Systems: %d (%d runs, %d failures)",
		schedulerStats.SystemCount, schedulerStats.TotalExecutions, schedulerStats.TotalFailures))

	avgFrameTime := ps.AverageFrameTime()
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	if len(ps.frameHistory) > 0 {
		imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))
	}

	if imgui.TreeNodeStr("Component Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ComponentStatsTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Component")
			imgui.TableSetupColumn("Entity Count")
			imgui.TableHeadersRow()

			for _, comp := range stats.ComponentBreakdown {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(comp.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", comp.EntityCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Failing Systems") {
		for _, sys := range schedulerStats.Systems {
			if sys.LastError != "" {
				imgui.BulletText(fmt.Sprintf("%s: %s", sys.Name, sys.LastError))
			}
		}
		imgui.TreePop()
	}

	imgui.End()
}

// record stores one frame's delta time, in seconds, in the ring buffer.
func (ps *PerformanceStatsComponent) record(deltaTime float32) {
	if ps.historyFrames <= 0 {
		return
	}
	ps.frameHistory[ps.frameIndex] = deltaTime * 1000.0
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime returns the mean of the recorded frame times in
// milliseconds.
func (ps *PerformanceStatsComponent) AverageFrameTime() float32 {
	if ps.historyFrames <= 0 {
		return 0
	}
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.historyFrames)
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

// GetDeltaTime returns the seconds elapsed since the previous call. The first
// call on a zero FrameTimer returns 0.
func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	if ft.lastFrameTime.IsZero() {
		ft.lastFrameTime = now
		return 0
	}
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
