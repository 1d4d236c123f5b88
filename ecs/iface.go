package ecs

import "unsafe"

// iface mirrors the runtime layout of an interface value. For a component
// stored as *T inside an `any`, data is the *T itself.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

func dataPointer(v any) unsafe.Pointer {
	return (*iface)(unsafe.Pointer(&v)).data
}
