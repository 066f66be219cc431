package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bonus-service/internal/bonus"
	"bonus-service/internal/database"
	"bonus-service/internal/export"
	"bonus-service/internal/lookup"
	"bonus-service/internal/matching"
	"bonus-service/internal/models"
	"bonus-service/internal/normalizer"
	"bonus-service/internal/report"
	"bonus-service/internal/repositories"
)

const asOfLayout = "2006-01-02"

// RunRequest describes one bonus computation. AsOf, when set, replaces the
// current date as the reference for service months.
type RunRequest struct {
	InputFiles
	AsOf   string `json:"as_of,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

func (r RunRequest) key() string {
	return strings.Join([]string{
		r.Staff, r.Worker, r.DueVouchers, r.Loans, r.Percentages, r.HRLedger, r.AsOf,
	}, "|")
}

// ParseAsOf validates an as_of date. An empty value yields the zero time.
func ParseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(asOfLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as_of %q, use YYYY-MM-DD: %w", raw, err)
	}
	return t, nil
}

type RunResult struct {
	Run        *models.BonusRun                   `json:"run"`
	Normalized map[models.Cohort]normalizer.Stats `json:"normalized"`
	Report     *report.Report                     `json:"report"`
}

type BonusRunService struct {
	db                 *sql.DB
	runRepo            repositories.RunRepository
	reconciliationRepo repositories.ReconciliationRepository
	loader             *InputLoader
	rules              bonus.Rules
	tolerance          decimal.Decimal
	logger             *zap.Logger

	now   func() time.Time
	newID func() string

	processingMutex sync.Mutex
	activeProcesses map[string]bool
}

// NewBonusRunService wires the pipeline. With a nil db runs are computed but
// not recorded, and history lookups return ErrPersistenceDisabled.
func NewBonusRunService(
	db *sql.DB,
	runRepo repositories.RunRepository,
	reconciliationRepo repositories.ReconciliationRepository,
	loader *InputLoader,
	rules bonus.Rules,
	tolerance decimal.Decimal,
	logger *zap.Logger,
) *BonusRunService {
	return &BonusRunService{
		db:                 db,
		runRepo:            runRepo,
		reconciliationRepo: reconciliationRepo,
		loader:             loader,
		rules:              rules,
		tolerance:          tolerance,
		logger:             logger.With(zap.String("component", "bonus_run_service")),
		now:                time.Now,
		newID:              func() string { return uuid.New().String() },
		activeProcesses:    make(map[string]bool),
	}
}

func (s *BonusRunService) acquire(key string) bool {
	s.processingMutex.Lock()
	defer s.processingMutex.Unlock()
	if s.activeProcesses[key] {
		return false
	}
	s.activeProcesses[key] = true
	return true
}

func (s *BonusRunService) release(key string) {
	s.processingMutex.Lock()
	delete(s.activeProcesses, key)
	s.processingMutex.Unlock()
}

// Run executes the whole pipeline once: load, normalize, compute, reconcile,
// assemble the report and, when persistence is configured, record the run.
func (s *BonusRunService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	asOf, err := ParseAsOf(req.AsOf)
	if err != nil {
		return nil, &models.RunError{Stage: models.StageInput, Reason: "invalid as_of", Err: err}
	}
	if asOf.IsZero() {
		asOf = s.now()
	}

	key := req.key()
	if !s.acquire(key) {
		return nil, models.ErrRunInProgress
	}
	defer s.release(key)

	runID := s.newID()
	logger := s.logger.With(zap.String("run_id", runID))
	started := time.Now()

	inputs, err := s.loader.Load(ctx, req.InputFiles)
	if err != nil {
		return nil, err
	}

	staff, err := s.normalize(models.CohortStaff, inputs, logger)
	if err != nil {
		return nil, err
	}
	worker, err := s.normalize(models.CohortWorker, inputs, logger)
	if err != nil {
		return nil, err
	}

	builder := lookup.NewBuilder(logger)
	lookups := builder.Build(inputs.DueVouchers, inputs.Loans, inputs.Percentages)
	hr := builder.HRLedger(inputs.HRLedger)

	employees := make([]*models.Employee, 0, len(staff.Employees)+len(worker.Employees))
	employees = append(employees, staff.Employees...)
	employees = append(employees, worker.Employees...)

	engine := bonus.NewEngine(s.rules, asOf, logger)
	computations := engine.Compute(employees, lookups)

	matcher := matching.NewMatchEngine(s.tolerance)
	matcher.SetData(computations, hr)
	matched := matcher.ProcessMatches()

	rep := report.Build(report.Input{
		RunID:                 runID,
		AsOf:                  asOf,
		Rules:                 s.rules,
		Computations:          computations,
		HR:                    hr,
		Reconciliation:        matched.Records,
		ReconciliationSummary: matched.Summary,
	})

	run := summarizeRun(runID, asOf, staff, worker, computations, matched.Summary)
	if s.db != nil {
		if err := s.record(ctx, run, matched.Records, req.UserID); err != nil {
			return nil, &models.RunError{Stage: models.StageRecord, Reason: "failed to record run", Err: err}
		}
	}

	logger.Info("Bonus run completed",
		zap.Int("employees", len(employees)),
		zap.Int("computations", run.ComputationCount),
		zap.Int("matched", run.MatchedCount),
		zap.Int("mismatched", run.MismatchedCount),
		zap.Int("missing", run.MissingCount),
		zap.Duration("duration", time.Since(started)),
	)

	return &RunResult{
		Run: run,
		Normalized: map[models.Cohort]normalizer.Stats{
			models.CohortStaff:  staff.Stats,
			models.CohortWorker: worker.Stats,
		},
		Report: rep,
	}, nil
}

func (s *BonusRunService) normalize(cohort models.Cohort, inputs *Inputs, logger *zap.Logger) (normalizer.Result, error) {
	n, err := normalizer.New(cohort, logger)
	if err != nil {
		return normalizer.Result{}, &models.RunError{Stage: models.StageNormalize, Reason: "unsupported cohort", Err: err}
	}
	wb := inputs.Staff
	if cohort == models.CohortWorker {
		wb = inputs.Worker
	}
	return n.Normalize(wb), nil
}

func summarizeRun(
	runID string,
	asOf time.Time,
	staff, worker normalizer.Result,
	computations []models.BonusComputation,
	summary models.ReconciliationSummary,
) *models.BonusRun {
	run := &models.BonusRun{
		RunID:            runID,
		Status:           models.RunStatusCompleted,
		AsOf:             asOf,
		StaffCount:       len(staff.Employees),
		WorkerCount:      len(worker.Employees),
		ComputationCount: len(computations),
		MatchedCount:     summary.Matched,
		MismatchedCount:  summary.Mismatched,
		MissingCount:     summary.Missing,
	}
	if len(computations) == 0 {
		run.Status = models.RunStatusEmpty
	}
	for _, c := range computations {
		run.TotalRegister = run.TotalRegister.Add(c.Register)
		run.TotalFinalPayout = run.TotalFinalPayout.Add(c.FinalPayout)
	}
	return run
}

func (s *BonusRunService) record(ctx context.Context, run *models.BonusRun, records []models.ReconciliationRecord, userID string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.runRepo.CreateRun(tx, run); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		if err := s.reconciliationRepo.CreateRecords(tx, run.ID, records); err != nil {
			return fmt.Errorf("failed to store reconciliation records: %w", err)
		}

		details, err := json.Marshal(map[string]interface{}{
			"computations": run.ComputationCount,
			"matched":      run.MatchedCount,
			"mismatched":   run.MismatchedCount,
			"missing":      run.MissingCount,
			"as_of":        run.AsOf.Format(asOfLayout),
		})
		if err != nil {
			return err
		}
		audit := &models.RunAudit{
			RunID:   run.ID,
			Action:  models.AuditActionReconciled,
			Details: details,
			UserID:  userID,
		}
		if err := s.runRepo.CreateAuditEntry(tx, audit); err != nil {
			return fmt.Errorf("failed to create audit entry: %w", err)
		}
		return nil
	})
}

// Export runs the pipeline and renders the report workbook.
func (s *BonusRunService) Export(ctx context.Context, req RunRequest) (*bytes.Buffer, *RunResult, error) {
	result, err := s.Run(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	buf, err := export.WriteReport(result.Report)
	if err != nil {
		return nil, nil, &models.RunError{Stage: models.StageRecord, Reason: "failed to render report", Err: err}
	}
	return buf, result, nil
}

func (s *BonusRunService) GetRun(runID string) (*models.BonusRun, error) {
	if s.db == nil {
		return nil, models.ErrPersistenceDisabled
	}
	return s.runRepo.GetRunByRunID(runID)
}

func (s *BonusRunService) ListRuns(limit int) ([]*models.BonusRun, error) {
	if s.db == nil {
		return nil, models.ErrPersistenceDisabled
	}
	return s.runRepo.ListRuns(limit)
}

// ListRecords returns the stored reconciliation records of a run.
func (s *BonusRunService) ListRecords(runID, status string) ([]models.ReconciliationRecord, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}
	records, err := s.reconciliationRepo.ListRecords(run.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation records: %w", err)
	}
	return records, nil
}
