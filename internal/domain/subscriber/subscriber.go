// internal/domain/subscriber/subscriber.go
package subscriber

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"team_pulse_worker/internal/domain/notification"
)

// Role is the authorization role a user holds.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleSupervisor  Role = "supervisor"
	RoleAdmin       Role = "admin"
	RoleOther       Role = "other"
)

func ParseRole(raw string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleCoordinator, RoleSupervisor, RoleAdmin:
		return r
	default:
		return RoleOther
	}
}

// Unscoped roles see every client regardless of team.
func (r Role) Unscoped() bool {
	return r == RoleSupervisor || r == RoleAdmin
}

// Subscriber is a user eligible for alert fan-out.
type Subscriber struct {
	UserID     uuid.UUID
	FullName   string
	Roles      []Role
	SquadID    uuid.NullUUID
	TelegramID int64 // 0 when the user has no linked chat
}

// CoversSquad reports whether the subscriber should hear about a client owned by squad.
func (s *Subscriber) CoversSquad(squad uuid.NullUUID) bool {
	coordinator := false
	for _, r := range s.Roles {
		if r.Unscoped() {
			return true
		}
		if r == RoleCoordinator {
			coordinator = true
		}
	}
	return coordinator && squad.Valid && s.SquadID.Valid && s.SquadID.UUID == squad.UUID
}

// Directory resolves alert candidates and their per-category preferences.
type Directory interface {
	// ListAlertCandidates returns active users holding a coordinator or
	// supervisor-equivalent role.
	ListAlertCandidates(ctx context.Context) ([]*Subscriber, error)
	// NotificationsEnabled defaults to true when no preference is stored.
	NotificationsEnabled(ctx context.Context, userID uuid.UUID, category notification.Category) (bool, error)
}
