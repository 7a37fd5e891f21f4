package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendingCSV = "Name,Email,Payroll Number,Department,Basic Salary,House Allowance\n" +
	"Jane,jane@x.com,P001,Finance,1000,200\n" +
	"Bob,bob@x.com,P002,Ops,900,100\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePending(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payroll.csv"), []byte(pendingCSV), 0o644))
	return dir
}

func TestInspect(t *testing.T) {
	dir := writePending(t)

	out, err := execute(t, "inspect", "--dir", dir, "--pending", "payroll.csv", "--archive", "sent.csv")
	require.NoError(t, err)

	assert.Contains(t, out, "payroll.csv, 2 rows")
	assert.Contains(t, out, "sent.csv (not created yet)")
}

func TestInspect_JSON(t *testing.T) {
	dir := writePending(t)

	out, err := execute(t, "inspect", "--json", "--dir", dir, "--pending", "payroll.csv", "--archive", "sent.csv")
	require.NoError(t, err)

	var sum core.TableSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 2, sum.Pending)
	assert.False(t, sum.ArchiveExists)
}

func TestInspect_MissingPending(t *testing.T) {
	out, err := execute(t, "inspect", "--dir", t.TempDir(), "--pending", "payroll.csv", "--archive", "sent.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "payroll.csv (not found)")
}

func TestRun_RequiresSMTP(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	dir := writePending(t)

	_, err := execute(t, "run", "--dir", dir, "--pending", "payroll.csv", "--archive", "sent.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_HOST")

	data, err := os.ReadFile(filepath.Join(dir, "payroll.csv"))
	require.NoError(t, err)
	assert.Equal(t, pendingCSV, string(data), "pending table must be untouched")
}

func TestRender(t *testing.T) {
	dir := writePending(t)
	t.Setenv("COMPANY_NAME", "Acme Ltd")
	t.Setenv("SALARY_REVIEW_HEADER", "SALARY REVIEW")
	t.Setenv("SALARY_REVIEW_INTRO", "We are pleased to inform you of your review.")
	t.Setenv("SALARY_REVIEW_DETAILS", "Your new salary:")
	t.Setenv("SALARY_REVIEW_NOTE", "Other terms unchanged.")
	t.Setenv("SALARY_REVIEW_TAX", "Subject to tax.")
	t.Setenv("SALARY_REVIEW_CONCLUSION", "Congratulations.")
	t.Setenv("SALARY_REVIEW_SIGNATURE", `Yours,\nHR`)

	out, err := execute(t, "render", "P002", "--out", dir, "--dir", dir, "--pending", "payroll.csv", "--archive", "sent.csv")
	require.NoError(t, err)

	path := filepath.Join(dir, "salary_review_P002.pdf")
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = execute(t, "render", "P404", "--dir", dir, "--pending", "payroll.csv", "--archive", "sent.csv")
	assert.ErrorContains(t, err, "P404")
}
