package authz

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

// CanManage reports whether actor may act on an account holding target
// (delete it, or create it). Staff may manage roles up to their own rank.
func CanManage(actor, target enums.Role) Decision {
	if !actor.IsValid() || !target.IsValid() {
		return Deny(ReasonUnknownRole)
	}
	if !actor.IsAdmin() {
		return Deny(ReasonNotGranted)
	}
	if target.Rank() > actor.Rank() {
		return Deny(ReasonOutranked)
	}
	return Allow()
}

// CanDeleteUser combines the rank check with the self-deletion guard.
func CanDeleteUser(actorID uuid.UUID, actor enums.Role, targetID uuid.UUID, target enums.Role) Decision {
	if actorID == targetID {
		return Deny(ReasonSelf)
	}
	return CanManage(actor, target)
}
