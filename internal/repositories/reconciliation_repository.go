package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"bonus-service/internal/models"
)

type ReconciliationRepository interface {
	CreateRecords(tx *sql.Tx, runID int64, records []models.ReconciliationRecord) error
	ListRecords(runID int64, status string) ([]models.ReconciliationRecord, error)
}

type reconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) CreateRecords(tx *sql.Tx, runID int64, records []models.ReconciliationRecord) error {
	query := `
		INSERT INTO reconciliation_records (
			run_id, emp_id, name, department, cohort, status, source,
			system_fields, hr_fields, diff_fields, mismatched_fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		system, err := json.Marshal(rec.System)
		if err != nil {
			return fmt.Errorf("failed to encode system fields for %s: %w", rec.EmpID, err)
		}
		hr, err := nullableJSON(rec.HR)
		if err != nil {
			return fmt.Errorf("failed to encode hr fields for %s: %w", rec.EmpID, err)
		}
		diff, err := nullableJSON(rec.Diff)
		if err != nil {
			return fmt.Errorf("failed to encode diff fields for %s: %w", rec.EmpID, err)
		}
		mismatched, err := json.Marshal(nonNil(rec.MismatchedFields))
		if err != nil {
			return err
		}

		if _, err := stmt.Exec(
			runID,
			rec.EmpID,
			rec.Name,
			rec.Department,
			string(rec.Cohort),
			rec.Status,
			rec.Source,
			system,
			hr,
			diff,
			mismatched,
		); err != nil {
			return fmt.Errorf("failed to insert reconciliation record %s: %w", rec.EmpID, err)
		}
	}
	return nil
}

// ListRecords returns a run's records in insertion order, optionally
// restricted to one status.
func (r *reconciliationRepository) ListRecords(runID int64, status string) ([]models.ReconciliationRecord, error) {
	query := `
		SELECT emp_id, name, department, cohort, status, source,
		       system_fields, hr_fields, diff_fields, mismatched_fields
		FROM reconciliation_records
		WHERE run_id = ?
	`
	args := []interface{}{runID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ReconciliationRecord{}
	for rows.Next() {
		var (
			rec        models.ReconciliationRecord
			cohort     string
			system     []byte
			hr, diff   []byte
			mismatched []byte
		)
		if err := rows.Scan(
			&rec.EmpID,
			&rec.Name,
			&rec.Department,
			&cohort,
			&rec.Status,
			&rec.Source,
			&system,
			&hr,
			&diff,
			&mismatched,
		); err != nil {
			return nil, err
		}
		rec.Cohort = models.Cohort(cohort)

		if err := json.Unmarshal(system, &rec.System); err != nil {
			return nil, fmt.Errorf("failed to decode system fields for %s: %w", rec.EmpID, err)
		}
		if rec.HR, err = decodeFieldSet(hr); err != nil {
			return nil, fmt.Errorf("failed to decode hr fields for %s: %w", rec.EmpID, err)
		}
		if rec.Diff, err = decodeFieldSet(diff); err != nil {
			return nil, fmt.Errorf("failed to decode diff fields for %s: %w", rec.EmpID, err)
		}
		if len(mismatched) > 0 {
			if err := json.Unmarshal(mismatched, &rec.MismatchedFields); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableJSON(f *models.FieldSet) (interface{}, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

func decodeFieldSet(raw []byte) (*models.FieldSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var f models.FieldSet
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
