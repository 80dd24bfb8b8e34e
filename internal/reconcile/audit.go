package reconcile

import (
	"fmt"
	"time"

	"github.com/zulandar/switchboard/internal/models"
)

// AppendAudit records one verified delivery in agent_logs. It is attempted
// exactly once per verified request against an active project, before and
// independently of any call mutation; callers log the returned error and
// carry on.
func (r *Reconciler) AppendAudit(orgID uint, eventName string, rawEvent []byte) error {
	if eventName == "" {
		eventName = "unknown_event"
	}
	row := models.AgentLog{
		OrgID:     orgID,
		Level:     "debug",
		Event:     eventName,
		Meta:      string(rawEvent),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.Create(&row).Error; err != nil {
		return fmt.Errorf("reconcile: audit append for org %d: %w", orgID, err)
	}
	return nil
}
