package ecs

import "slices"

// StorageStats is a point-in-time summary of a Storage.
type StorageStats struct {
	TotalEntityCount   int
	ComponentTypeCount int
	CachedPlanCount    int
	ComponentBreakdown []ComponentStats
}

// ComponentStats counts the entities carrying one component type.
type ComponentStats struct {
	Type        ComponentType
	Name        string
	EntityCount int
}

// CollectStats gathers entity and index statistics. Component types are
// listed by descending entity count, then by name.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		TotalEntityCount:   s.Len(),
		ComponentTypeCount: s.registry.Len(),
		CachedPlanCount:    len(s.plans),
	}

	for bit, t := range s.registry.Types() {
		count := 0
		if bit < len(s.postings) {
			count = s.postings[bit].Len()
		}
		stats.ComponentBreakdown = append(stats.ComponentBreakdown, ComponentStats{
			Type:        t,
			Name:        t.String(),
			EntityCount: count,
		})
	}

	slices.SortStableFunc(stats.ComponentBreakdown, func(a, b ComponentStats) int {
		if a.EntityCount != b.EntityCount {
			return b.EntityCount - a.EntityCount
		}
		return compareComponentTypes(a.Type, b.Type)
	})
	return stats
}
