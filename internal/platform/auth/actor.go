package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of principals the booking core knows about.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts only the three known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Actor is the authenticated principal for one request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the actor on ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the actor placed by JWTMiddleware or
// DevAuthMiddleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
