package debugui

import (
	"github.com/plus3/ecsenv/ecs"
)

// DebugUI marks the entity carrying the debug panels.
type DebugUI struct{}

type EntityBrowserComponent struct {
	cache              *entityBrowserCache
	selected           *ecs.Entity
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspectorComponent struct {
	selected *ecs.Entity
}

type SystemPanelComponent struct {
	cache   *systemPanelCache
	removed []ecs.System
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	timer         FrameTimer
}

type QueryTesterComponent struct {
	required map[string]bool
	excluded map[string]bool
	limit    int
}
