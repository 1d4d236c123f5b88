package ecs

import "github.com/rotisserie/eris"

// Errors returned by the entity store, the scheduler and the environment.
// They are wrapped with call-site context; test for them with errors.Is.
var (
	ErrDuplicateId        = eris.New("duplicate entity id")
	ErrNotFound           = eris.New("entity not found")
	ErrAmbiguousOrMissing = eris.New("expected exactly one matching entity")
	ErrMissingComponent   = eris.New("missing component")
	ErrDuplicateComponent = eris.New("component already present")
	ErrEntityOwned        = eris.New("entity belongs to another storage")
	ErrNilEntity          = eris.New("entity is nil")
	ErrSystemPresent      = eris.New("system already registered")
	ErrSystemFailed       = eris.New("system failed")
)
