package repositories

import (
	"database/sql"
	"errors"

	"bonus-service/internal/models"
)

type RunRepository interface {
	CreateRun(tx *sql.Tx, run *models.BonusRun) error
	GetRunByRunID(runID string) (*models.BonusRun, error)
	ListRuns(limit int) ([]*models.BonusRun, error)
	CreateAuditEntry(tx *sql.Tx, audit *models.RunAudit) error
}

type runRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) RunRepository {
	return &runRepository{db: db}
}

const runColumns = `
		id, run_id, status, as_of, staff_count, worker_count, computation_count,
		matched_count, mismatched_count, missing_count, total_register,
		total_final_payout, created_at, updated_at`

func (r *runRepository) CreateRun(tx *sql.Tx, run *models.BonusRun) error {
	query := `
		INSERT INTO bonus_runs (
			run_id, status, as_of, staff_count, worker_count, computation_count,
			matched_count, mismatched_count, missing_count, total_register, total_final_payout
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		run.RunID,
		run.Status,
		run.AsOf,
		run.StaffCount,
		run.WorkerCount,
		run.ComputationCount,
		run.MatchedCount,
		run.MismatchedCount,
		run.MissingCount,
		run.TotalRegister,
		run.TotalFinalPayout,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.BonusRun, error) {
	run := &models.BonusRun{}
	err := row.Scan(
		&run.ID,
		&run.RunID,
		&run.Status,
		&run.AsOf,
		&run.StaffCount,
		&run.WorkerCount,
		&run.ComputationCount,
		&run.MatchedCount,
		&run.MismatchedCount,
		&run.MissingCount,
		&run.TotalRegister,
		&run.TotalFinalPayout,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepository) GetRunByRunID(runID string) (*models.BonusRun, error) {
	query := `SELECT` + runColumns + `
		FROM bonus_runs
		WHERE run_id = ?
	`
	run, err := scanRun(r.db.QueryRow(query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepository) ListRuns(limit int) ([]*models.BonusRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT` + runColumns + `
		FROM bonus_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.BonusRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepository) CreateAuditEntry(tx *sql.Tx, audit *models.RunAudit) error {
	query := `
		INSERT INTO bonus_run_audit (
			run_id, action, details, user_id
		) VALUES (?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		audit.RunID,
		audit.Action,
		audit.Details,
		audit.UserID,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	audit.ID = id
	return nil
}
