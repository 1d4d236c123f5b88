package ecs

// UpdateFrame is handed to every system during one scheduler pass.
type UpdateFrame struct {
	DeltaTime float64
	Frame     uint64
	Env       *Environment
	Commands  *Commands
}

func newUpdateFrame(dt float64, frame uint64, env *Environment) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Frame:     frame,
		Env:       env,
		Commands:  newCommands(),
	}
}
