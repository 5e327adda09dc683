// Package session resolves who is calling the API and keeps the active role per session.
package session

import (
	"fmt"

	"github.com/noah-isme/eduattend-api/internal/models"
)

// Event drives the session state machine.
type Event string

const (
	EventLoginAs Event = "login_as"
	EventLogout  Event = "logout"
)

// Transition returns the state reached from from on ev. Logging in is allowed
// from the unknown and anonymous states only; logging out is allowed from any state.
func Transition(from models.SessionState, ev Event) (models.SessionState, error) {
	switch ev {
	case EventLogout:
		return models.SessionAnonymous, nil
	case EventLoginAs:
		if from == models.SessionUnknown || from == models.SessionAnonymous {
			return models.SessionLoggedIn, nil
		}
		return from, fmt.Errorf("cannot %s from state %s", ev, from)
	default:
		return from, fmt.Errorf("unknown session event %q", ev)
	}
}
