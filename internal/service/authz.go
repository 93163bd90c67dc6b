package service

import "github.com/ContextLab/lab-manual/internal/logger"

// adminGate is the single authorization policy for mutating admin actions.
// A mismatch is a silent no-op rather than an error so non-admins learn
// nothing about the existence or state of requests; the attempt is only
// visible in the debug log.
type adminGate struct {
	adminUserID string
}

func (g adminGate) authorize(actorID string) bool {
	if actorID == g.adminUserID {
		return true
	}
	logger.Debug("ignoring admin action from non-admin actor", "actor_id", actorID)
	return false
}
