package appointment

import (
	"github.com/medibook/medibook/internal/platform/auth"
)

type transition struct {
	from, to Status
}

// transitions is the complete state machine: every permitted (from, to)
// pair and the roles that may perform it. Anything absent is invalid.
var transitions = map[transition][]auth.Role{
	{StatusPending, StatusApproved}:   {auth.RoleDoctor},
	{StatusPending, StatusRejected}:   {auth.RoleDoctor, auth.RolePatient},
	{StatusApproved, StatusCompleted}: {auth.RoleDoctor},
	{StatusApproved, StatusRejected}:  {auth.RoleDoctor},
}

// CanTransition reports whether role may move an appointment from one
// status to another.
func CanTransition(role auth.Role, from, to Status) bool {
	for _, r := range transitions[transition{from, to}] {
		if r == role {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	for t := range transitions {
		if t.from == s {
			return false
		}
	}
	return true
}

// NextStatuses lists the targets role may move s to.
func NextStatuses(role auth.Role, s Status) []Status {
	var out []Status
	for _, to := range []Status{StatusApproved, StatusRejected, StatusCompleted} {
		if CanTransition(role, s, to) {
			out = append(out, to)
		}
	}
	return out
}
