package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

// InputFiles names the workbooks of one run. Staff and Worker are required.
type InputFiles struct {
	Staff       string `json:"staff_file"`
	Worker      string `json:"worker_file"`
	DueVouchers string `json:"due_voucher_file,omitempty"`
	Loans       string `json:"loan_file,omitempty"`
	Percentages string `json:"percentage_file,omitempty"`
	HRLedger    string `json:"hr_ledger_file,omitempty"`
}

// Inputs holds the parsed workbooks. Optional ledgers that are absent or
// unreadable are nil.
type Inputs struct {
	Staff       *workbook.Workbook
	Worker      *workbook.Workbook
	DueVouchers *workbook.Workbook
	Loans       *workbook.Workbook
	Percentages *workbook.Workbook
	HRLedger    *workbook.Workbook
}

type InputLoader struct {
	baseDir string
	logger  *zap.Logger
}

// NewInputLoader confines relative and absolute input paths to baseDir. An
// empty baseDir disables confinement.
func NewInputLoader(baseDir string, logger *zap.Logger) *InputLoader {
	return &InputLoader{
		baseDir: baseDir,
		logger:  logger.With(zap.String("component", "input_loader")),
	}
}

// Resolve maps a request path onto the filesystem.
func (l *InputLoader) Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if l.baseDir == "" {
		return filepath.Clean(path), nil
	}

	base, err := filepath.Abs(l.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve input base directory: %w", err)
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", models.ErrInvalidInputPath, path, l.baseDir)
	}
	return resolved, nil
}

// Load opens all workbooks concurrently. A missing or unreadable cohort
// workbook fails the load; ledger problems are logged and tolerated.
func (l *InputLoader) Load(ctx context.Context, files InputFiles) (*Inputs, error) {
	inputs := &Inputs{}
	g, ctx := errgroup.WithContext(ctx)

	cohort := func(label, path string, dst **workbook.Workbook) {
		g.Go(func() error {
			wb, err := l.openCohort(ctx, label, path)
			if err != nil {
				return err
			}
			*dst = wb
			return nil
		})
	}
	ledger := func(label, path string, dst **workbook.Workbook) {
		g.Go(func() error {
			*dst = l.openLedger(ctx, label, path)
			return nil
		})
	}

	cohort("staff", files.Staff, &inputs.Staff)
	cohort("worker", files.Worker, &inputs.Worker)
	ledger("due_voucher", files.DueVouchers, &inputs.DueVouchers)
	ledger("loan", files.Loans, &inputs.Loans)
	ledger("percentage", files.Percentages, &inputs.Percentages)
	ledger("hr", files.HRLedger, &inputs.HRLedger)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func (l *InputLoader) openCohort(ctx context.Context, label, path string) (*workbook.Workbook, error) {
	if path == "" {
		return nil, &models.RunError{Stage: models.StageInput, Reason: label + " workbook is required", Err: models.ErrMissingCohortFile}
	}
	resolved, err := l.Resolve(path)
	if err != nil {
		return nil, &models.RunError{Stage: models.StageInput, Reason: label + " workbook path rejected", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(resolved); errors.Is(err, fs.ErrNotExist) {
		return nil, &models.RunError{
			Stage:  models.StageInput,
			Reason: fmt.Sprintf("%s workbook %s not found", label, path),
			Err:    models.ErrMissingCohortFile,
		}
	}

	wb, err := workbook.Open(resolved)
	if err != nil {
		return nil, &models.RunError{Stage: models.StageInput, Reason: label + " workbook could not be read", Err: err}
	}
	l.logger.Debug("Loaded cohort workbook", zap.String("cohort", label), zap.String("path", resolved), zap.Int("sheets", len(wb.Sheets)))
	return wb, nil
}

func (l *InputLoader) openLedger(ctx context.Context, label, path string) *workbook.Workbook {
	if path == "" || ctx.Err() != nil {
		return nil
	}
	logger := l.logger.With(zap.String("ledger", label), zap.String("path", path))

	resolved, err := l.Resolve(path)
	if err != nil {
		logger.Warn("Ignoring ledger", zap.Error(err))
		return nil
	}
	wb, err := workbook.Open(resolved)
	if err != nil {
		logger.Warn("Ignoring unreadable ledger", zap.Error(err))
		return nil
	}
	return wb
}
