package repositories

import (
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bonus-service/internal/models"
)

var recordColumns = []string{
	"emp_id", "name", "department", "cohort", "status", "source",
	"system_fields", "hr_fields", "diff_fields", "mismatched_fields",
}

func TestCreateRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hr := models.FieldSet{Register: decimal.NewFromInt(800)}
	diff := models.FieldSet{Register: decimal.NewFromInt(33)}
	records := []models.ReconciliationRecord{
		{EmpID: "143", Cohort: models.CohortStaff, Status: models.StatusMismatch, Source: models.SourceBoth,
			HR: &hr, Diff: &diff, MismatchedFields: []string{"register"}},
		{EmpID: "150", Cohort: models.CohortWorker, Status: models.StatusMissing, Source: models.SourceSystemOnly},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO reconciliation_records")
	prep.ExpectExec().
		WithArgs(int64(7), "143", "", "", "staff", models.StatusMismatch, models.SourceBoth,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), []byte(`["register"]`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(int64(7), "150", "", "", "worker", models.StatusMissing, models.SourceSystemOnly,
			sqlmock.AnyArg(), nil, nil, []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, NewReconciliationRepository(db).CreateRecords(tx, 7, records))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsFiltersByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	system, _ := json.Marshal(models.FieldSet{Register: decimal.NewFromInt(833)})
	hr, _ := json.Marshal(models.FieldSet{Register: decimal.NewFromInt(800)})
	diff, _ := json.Marshal(models.FieldSet{Register: decimal.NewFromInt(33)})

	mock.ExpectQuery("SELECT (.+) FROM reconciliation_records WHERE run_id = \\? AND status = \\? ORDER BY id").
		WithArgs(int64(7), models.StatusMismatch).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("143", "Asha", "S", "staff", models.StatusMismatch, models.SourceBoth,
				system, hr, diff, []byte(`["register"]`)))

	records, err := NewReconciliationRepository(db).ListRecords(7, models.StatusMismatch)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, models.CohortStaff, rec.Cohort)
	require.NotNil(t, rec.HR)
	assert.True(t, decimal.NewFromInt(800).Equal(rec.HR.Register))
	assert.True(t, decimal.NewFromInt(33).Equal(rec.Diff.Register))
	assert.Equal(t, []string{"register"}, rec.MismatchedFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsKeepsMissingHRNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	system, _ := json.Marshal(models.FieldSet{})
	mock.ExpectQuery("SELECT (.+) FROM reconciliation_records WHERE run_id = \\? ORDER BY id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("150", "Ravi", "W", "worker", models.StatusMissing, models.SourceSystemOnly,
				system, nil, nil, []byte(`[]`)))

	records, err := NewReconciliationRepository(db).ListRecords(7, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].HR)
	assert.Nil(t, records[0].Diff)
	assert.Empty(t, records[0].MismatchedFields)
}
