package bonus

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Default rule parameters
var (
	DefaultStatutoryPercent    = decimal.RequireFromString("8.33")
	DefaultIntroductoryPercent = decimal.NewFromInt(20)
	DefaultIntermediatePercent = decimal.NewFromInt(12)
	DefaultCappedBasisRatio    = decimal.RequireFromString("0.6")
)

const (
	DefaultMinWorkerServiceMonths = 6

	// Service tiers, in whole months
	IntroductoryTierMonths = 12
	IntermediateTierMonths = 24
)

var (
	DefaultWorkerPercentExceptions = []string{"143"}
	DefaultStaffDepartments        = []string{"S", "STAFF", "SP", "SCIENCE PRECISION"}
	DefaultWorkerDepartments       = []string{"W", "WORKER", "WORKERS", "M", "MFG", "MANUFACTURING", "PRODUCTION"}
)

// Rules parameterizes the bonus rule engine.
type Rules struct {
	StatutoryPercent        decimal.Decimal
	IntroductoryPercent     decimal.Decimal
	IntermediatePercent     decimal.Decimal
	CappedBasisRatio        decimal.Decimal
	MinWorkerServiceMonths  int
	WorkerPercentExceptions []string
	StaffDepartments        []string
	WorkerDepartments       []string
}

func DefaultRules() Rules {
	return Rules{
		StatutoryPercent:        DefaultStatutoryPercent,
		IntroductoryPercent:     DefaultIntroductoryPercent,
		IntermediatePercent:     DefaultIntermediatePercent,
		CappedBasisRatio:        DefaultCappedBasisRatio,
		MinWorkerServiceMonths:  DefaultMinWorkerServiceMonths,
		WorkerPercentExceptions: append([]string(nil), DefaultWorkerPercentExceptions...),
		StaffDepartments:        append([]string(nil), DefaultStaffDepartments...),
		WorkerDepartments:       append([]string(nil), DefaultWorkerDepartments...),
	}
}

// Validate rejects parameter sets the engine cannot apply.
func (r Rules) Validate() error {
	if !r.StatutoryPercent.IsPositive() {
		return fmt.Errorf("statutory percent must be positive, got %s", r.StatutoryPercent)
	}
	if !r.CappedBasisRatio.IsPositive() || r.CappedBasisRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("capped basis ratio must be in (0, 1], got %s", r.CappedBasisRatio)
	}
	if r.MinWorkerServiceMonths < 0 {
		return fmt.Errorf("minimum worker service months must not be negative, got %d", r.MinWorkerServiceMonths)
	}
	return nil
}

func (r Rules) IsStaffDepartment(dept string) bool {
	return containsFold(r.StaffDepartments, dept)
}

func (r Rules) IsWorkerDepartment(dept string) bool {
	return containsFold(r.WorkerDepartments, dept)
}

func (r Rules) IsPercentException(empID string) bool {
	return containsFold(r.WorkerPercentExceptions, empID)
}

func containsFold(set []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
