// Package backend defines the shared vocabulary between input sources
// (terminal, future GUI frontends) and the input package's debouncing and
// routing logic, without either side depending on a concrete renderer.
package backend

import (
	"github.com/halstead/dmgcore/dmgcore/input/action"
	"github.com/halstead/dmgcore/dmgcore/input/event"
)

// InputEvent represents an input event collected from a frontend.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}
