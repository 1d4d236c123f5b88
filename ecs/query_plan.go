package ecs

// queryPlan is an archetype resolved against a registry: the masks an entity
// must contain and must not intersect, plus the bit ids whose posting sets
// can seed the candidate list.
type queryPlan struct {
	archetype    Archetype
	present      bitmask256
	absent       bitmask256
	required     []uint8
	unsatisfied  bool
	registrySize int
}

func newQueryPlan(a Archetype, registry *ComponentRegistry) *queryPlan {
	p := &queryPlan{
		archetype:    a,
		registrySize: registry.Len(),
	}

	for _, t := range a.present {
		id, ok := registry.lookup(t)
		if !ok {
			// no entity has ever carried t in this registry
			p.unsatisfied = true
			continue
		}
		p.present.set(id)
		p.required = append(p.required, id)
	}

	for _, t := range a.absent {
		if id, ok := registry.lookup(t); ok {
			p.absent.set(id)
		}
	}

	if p.present.intersects(p.absent) {
		p.unsatisfied = true
	}
	return p
}

func (p *queryPlan) matches(e *Entity) bool {
	return e.mask.contains(p.present) && !e.mask.intersects(p.absent)
}

// plan returns the cached plan for a, rebuilding it when the registry has
// grown since it was resolved.
func (s *Storage) plan(a Archetype) *queryPlan {
	if p, ok := s.plans[a.Key()]; ok && p.archetype.Equal(a) && p.registrySize == s.registry.Len() {
		return p
	}

	p := newQueryPlan(a, s.registry)
	if existing, ok := s.plans[a.Key()]; ok && !existing.archetype.Equal(a) {
		// hash collision, keep the first archetype cached
		return p
	}
	s.plans[a.Key()] = p
	return p
}
