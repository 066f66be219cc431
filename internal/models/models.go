package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BonusRun is the persisted summary of one pipeline execution
type BonusRun struct {
	ID               int64           `db:"id" json:"id"`
	RunID            string          `db:"run_id" json:"run_id"`
	Status           string          `db:"status" json:"status"`
	AsOf             time.Time       `db:"as_of" json:"as_of"`
	StaffCount       int             `db:"staff_count" json:"staff_count"`
	WorkerCount      int             `db:"worker_count" json:"worker_count"`
	ComputationCount int             `db:"computation_count" json:"computation_count"`
	MatchedCount     int             `db:"matched_count" json:"matched_count"`
	MismatchedCount  int             `db:"mismatched_count" json:"mismatched_count"`
	MissingCount     int             `db:"missing_count" json:"missing_count"`
	TotalRegister    decimal.Decimal `db:"total_register" json:"total_register"`
	TotalFinalPayout decimal.Decimal `db:"total_final_payout" json:"total_final_payout"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"-"`
}

// RunAudit represents an audit trail entry for a run
type RunAudit struct {
	ID        int64           `db:"id" json:"id"`
	RunID     int64           `db:"run_id" json:"run_id"`
	Action    string          `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details"`
	UserID    string          `db:"user_id" json:"user_id"`
	CreatedAt time.Time       `db:"created_at" json:"-"`
}

// RunStatus constants
const (
	RunStatusCompleted = "completed"
	RunStatusEmpty     = "empty"
)

// AuditAction constants
const (
	AuditActionComputed   = "computed"
	AuditActionReconciled = "reconciled"
)
