package constants

// RunStatus is the canonical status for rows in run_journal.
type RunStatus string

// Stable values (store these exact strings in the journal).
const (
	RunStatusRunning     RunStatus = "RUNNING"     // in progress
	RunStatusFiled       RunStatus = "FILED"       // terminal success
	RunStatusQuarantined RunStatus = "QUARANTINED" // terminal failure
	RunStatusAbandoned   RunStatus = "ABANDONED"   // interrupted by a crash, re-delivered
)
