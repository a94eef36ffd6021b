package testutil

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electcli/internal/operations"
)

// AssertStepStatus verifies a step has the expected status
func AssertStepStatus(t *testing.T, step *operations.StepState, expected operations.StepStatus) {
	t.Helper()
	require.NotNil(t, step, "step state is nil")
	assert.Equal(t, expected, step.GetStatus(), "step %s status", step.ID)
}

// AssertAllStepsStatus verifies every step of a sheet has the expected status
func AssertAllStepsStatus(t *testing.T, sheet *operations.SheetResult, expected operations.StepStatus) {
	t.Helper()
	require.NotNil(t, sheet, "sheet result is nil")
	for _, s := range sheet.Steps {
		AssertStepStatus(t, s, expected)
	}
}

// ReadCSV reads a whole CSV file, header included.
func ReadCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

// AssertFileExists fails the test when path is missing.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.NoError(t, err, "expected file %s", path)
}

// AssertNoFile fails the test when path exists.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "unexpected file %s", path)
}
