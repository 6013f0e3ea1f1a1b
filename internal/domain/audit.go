package domain

import "time"

// ActionStatusUpdated is the audit action recorded for every transition.
const ActionStatusUpdated = "Repair Status Updated"

// StatusUpdate is an immutable audit record of one status change. Entries are
// only ever appended; retention is a sink concern.
type StatusUpdate struct {
	ID        string
	RepairID  string
	OldStatus RepairStatus
	NewStatus RepairStatus
	UpdatedBy string
	Notes     string
	Timestamp time.Time
}
