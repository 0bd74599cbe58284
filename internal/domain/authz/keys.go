package authz

import (
	"fmt"

	appctx "gasworld/internal/core/context"
	"gasworld/internal/core/id"
)

// Role names re-exported for guard callers.
const (
	RoleOwner     = appctx.RoleOwner
	RoleManager   = appctx.RoleManager
	RoleAttendant = appctx.RoleAttendant
)

// Cache key space. Every key is derived from an identity so that
// InvalidateSession can enumerate and delete all of them at logout.
func roleFlagKey(role string, userID id.ID) string {
	return fmt.Sprintf("role_flag:%s:%s", role, userID)
}

func roleStationKey(role string, userID id.ID) string {
	return fmt.Sprintf("role_station:%s:%s", role, userID)
}

func managerAttendantKey(managerID, attendantID id.ID) string {
	return fmt.Sprintf("manager_attendant:%s:%s", managerID, attendantID)
}

func lastReadingsKey(attendantID id.ID) string {
	return fmt.Sprintf("attendant_last_readings:%s", attendantID)
}
