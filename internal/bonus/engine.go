package bonus

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bonus-service/internal/fiscal"
	"bonus-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Engine derives one BonusComputation per employee. It performs no I/O and
// holds no mutable state, so a single engine may serve concurrent callers.
type Engine struct {
	rules  Rules
	now    time.Time
	logger *zap.Logger
}

// NewEngine binds the rules to a fixed "now" used for every service-month
// calculation of the run.
func NewEngine(rules Rules, now time.Time, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rules:  rules,
		now:    now,
		logger: logger.With(zap.String("component", "bonus_engine")),
	}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) Now() time.Time {
	return e.now
}

// Compute derives computations in input order. Employees without a joining
// date are dropped.
func (e *Engine) Compute(employees []*models.Employee, lookups models.Lookups) []models.BonusComputation {
	computations := make([]models.BonusComputation, 0, len(employees))
	for _, emp := range employees {
		if emp == nil {
			continue
		}
		if !emp.HasJoiningDate() {
			e.logger.Debug("Dropping employee without joining date", zap.String("emp_id", emp.EmpID))
			continue
		}
		computations = append(computations, e.ComputeOne(emp, lookups))
	}

	e.logger.Info("Computed bonuses",
		zap.Int("employees", len(employees)),
		zap.Int("computations", len(computations)))
	return computations
}

// ComputeOne applies the rule chain to a single employee. Sentinel rows
// without an individual id take nothing from the side ledgers.
func (e *Engine) ComputeOne(emp *models.Employee, lookups models.Lookups) models.BonusComputation {
	if !emp.HasLedgerIdentity() {
		lookups = models.Lookups{}
	}

	salaries := MonthlySalaries(emp)
	gross := decimal.Zero
	for _, s := range salaries {
		gross = gross.Add(s.Value())
	}
	gross = models.RoundMoney(gross)

	service := 0
	if !emp.IsSentinel {
		service = ServiceMonths(emp.DateOfJoining, e.now)
	}

	percent := e.ResolvePercent(emp, service, lookups)
	gross2 := e.CappedBasis(gross, percent)

	register := decimal.Zero
	if !emp.IsCashSalary {
		register = models.RoundMoney(gross2.Mul(e.rules.StatutoryPercent).Div(hundred))
	}

	alreadyPaid, unpaid := decimal.Zero, decimal.Zero
	if !emp.IsCashSalary {
		due := lookups.DueVoucher(emp.EmpID)
		alreadyPaid = models.RoundMoney(due.AlreadyPaid)
		unpaid = models.RoundMoney(due.Unpaid)
	}

	deductions := alreadyPaid.Add(unpaid)
	afterV := register.Sub(deductions)
	eligible := e.IsEligible(emp.Department, service)
	actual := decimal.Zero
	if eligible {
		actual = afterV
	}

	return models.BonusComputation{
		EmpID:            emp.EmpID,
		Name:             emp.Name,
		Department:       emp.Department,
		Cohort:           emp.Cohort,
		DateOfJoining:    emp.DateOfJoining,
		IsCashSalary:     emp.IsCashSalary,
		IsSentinel:       emp.IsSentinel,
		ServiceMonths:    service,
		MonthlySalaries:  salaries,
		MonthlyRecords:   append([]models.MonthlyRecord(nil), emp.Records...),
		TotalGrossSalary: gross,
		BonusPercent:     percent,
		Gross2:           gross2,
		Register:         register,
		AlreadyPaid:      alreadyPaid,
		Unpaid:           unpaid,
		AfterV:           afterV,
		IsEligible:       eligible,
		Actual:           actual,
		Reim:             afterV.Sub(actual),
		Loan:             models.RoundMoney(lookups.Loan(emp.EmpID)),
		// The loan is reported but not deducted.
		FinalPayout: register.Sub(deductions),
	}
}

// ResolvePercent picks the bonus percentage: worker departments are pinned to
// the statutory rate unless the id is an exception, then a custom override
// applies, then the service tier.
func (e *Engine) ResolvePercent(emp *models.Employee, serviceMonths int, lookups models.Lookups) decimal.Decimal {
	if e.rules.IsWorkerDepartment(emp.Department) && !e.rules.IsPercentException(emp.EmpID) {
		return e.rules.StatutoryPercent
	}
	if override, ok := lookups.Percentage(emp.EmpID); ok {
		return override
	}
	if emp.IsSentinel {
		return e.rules.StatutoryPercent
	}

	switch {
	case serviceMonths < IntroductoryTierMonths:
		return e.rules.IntroductoryPercent
	case serviceMonths < IntermediateTierMonths:
		return e.rules.IntermediatePercent
	default:
		return e.rules.StatutoryPercent
	}
}

// CappedBasis returns gross2: the full gross at the statutory rate, the
// capped share above it, and zero below it.
func (e *Engine) CappedBasis(gross, percent decimal.Decimal) decimal.Decimal {
	switch percent.Cmp(e.rules.StatutoryPercent) {
	case 0:
		return gross
	case 1:
		return models.RoundMoney(gross.Mul(e.rules.CappedBasisRatio))
	default:
		return decimal.Zero
	}
}

// IsEligible applies the department rule: staff always, workers after the
// minimum service, everyone else by default.
func (e *Engine) IsEligible(department string, serviceMonths int) bool {
	switch {
	case e.rules.IsStaffDepartment(department):
		return true
	case e.rules.IsWorkerDepartment(department):
		return serviceMonths >= e.rules.MinWorkerServiceMonths
	default:
		return true
	}
}

// MonthlySalaries maps the fiscal months to the first positive salary per
// month code and appends the estimated twelfth month.
func MonthlySalaries(emp *models.Employee) []models.MonthlySalary {
	salaries := make([]models.MonthlySalary, 0, len(fiscal.FiscalMonths)+1)
	for _, code := range fiscal.FiscalMonths {
		slot := models.MonthlySalary{Month: code}
		for _, rec := range emp.Records {
			if fiscal.CodeOf(rec.Month) == code && rec.Salary.IsPositive() {
				slot.Amount = decimal.NewNullDecimal(rec.Salary)
				break
			}
		}
		salaries = append(salaries, slot)
	}

	salaries = append(salaries, models.MonthlySalary{
		Month:     fiscal.EstimatedMonth,
		Amount:    decimal.NewNullDecimal(EstimateTwelfthMonth(salaries)),
		Estimated: true,
	})
	return salaries
}

// EstimateTwelfthMonth averages the positive salaries of December through
// July when August is paid; otherwise the estimate is zero.
func EstimateTwelfthMonth(salaries []models.MonthlySalary) decimal.Decimal {
	if len(salaries) <= fiscal.AugustIndex {
		return decimal.Zero
	}
	august := salaries[fiscal.AugustIndex]
	if !august.Amount.Valid || august.Amount.Decimal.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero
	}

	sum, count := decimal.Zero, 0
	for _, s := range salaries[1:fiscal.AugustIndex] {
		if s.Amount.Valid && s.Amount.Decimal.IsPositive() {
			sum = sum.Add(s.Amount.Decimal)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return models.RoundMoney(sum.Div(decimal.NewFromInt(int64(count))))
}

// ServiceMonths counts whole calendar months from joining to now, never negative.
func ServiceMonths(joined, now time.Time) int {
	months := (now.Year()*12 + int(now.Month())) - (joined.Year()*12 + int(joined.Month()))
	if months < 0 {
		return 0
	}
	return months
}
