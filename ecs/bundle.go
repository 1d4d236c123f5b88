package ecs

// Bundle is a named batch of systems enabled and disabled together, such as
// every system making up rendering or physics.
type Bundle struct {
	Name    string
	Systems []System
}

// NewBundle creates a bundle.
func NewBundle(name string, systems ...System) Bundle {
	return Bundle{Name: name, Systems: systems}
}

// EnableBundle adds every system of the bundle, replacing registered systems
// of the same types.
func (env *Environment) EnableBundle(b Bundle) {
	env.AddSystems(b.Systems...)
}

// DisableBundle removes every system type of the bundle that is registered.
func (env *Environment) DisableBundle(b Bundle) {
	for _, system := range b.Systems {
		env.RemoveSystem(SystemTypeOf(system))
	}
}

// IsBundleEnabled reports whether every system type of the bundle is
// registered.
func (env *Environment) IsBundleEnabled(b Bundle) bool {
	for _, system := range b.Systems {
		if !env.IsSystemPresent(SystemTypeOf(system)) {
			return false
		}
	}
	return len(b.Systems) > 0
}
