package bonus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	r := DefaultRules()
	r.StatutoryPercent = dec("0")
	assert.Error(t, r.Validate())

	r = DefaultRules()
	r.CappedBasisRatio = dec("1.2")
	assert.Error(t, r.Validate())

	r = DefaultRules()
	r.MinWorkerServiceMonths = -1
	assert.Error(t, r.Validate())
}

func TestDefaultRulesAreIndependentCopies(t *testing.T) {
	r := DefaultRules()
	r.StaffDepartments[0] = "CHANGED"

	assert.Equal(t, "S", DefaultRules().StaffDepartments[0])
}

func TestDepartmentClassification(t *testing.T) {
	r := DefaultRules()

	assert.True(t, r.IsStaffDepartment(" staff "))
	assert.True(t, r.IsWorkerDepartment("Production"))
	assert.False(t, r.IsWorkerDepartment("SP"))
	assert.True(t, r.IsPercentException("143"))
	assert.False(t, r.IsPercentException("144"))
}
