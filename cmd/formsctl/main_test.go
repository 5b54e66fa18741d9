package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"properforms/internal/database"
	"properforms/internal/domain/field"
	"properforms/internal/domain/form"
	"properforms/internal/domain/submission"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "forms.db")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("PUBLIC_BASE_URL", "https://forms.example.com")
	return dsn
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedSubmission(t *testing.T, dsn string) {
	t.Helper()
	db, err := database.Connect(dsn, zap.NewNop())
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	}()

	fields, err := json.Marshal([]field.Config{
		{ID: "email", Type: field.KindEmail, Label: "Email"},
		{ID: "cv", Type: field.KindFileUpload, Label: "CV"},
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(&form.Form{ID: 5, Title: "Careers", Status: form.StatusPublish, FieldsJSON: string(fields)}).Error)
	require.NoError(t, db.Create(&submission.Submission{
		FormID:    5,
		Status:    submission.StatusPublish,
		Data:      `{"email":"ann@example.com","cv":9}`,
		CreatedAt: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func TestMigrateAndCreateUser(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	out, err = run(t, "user", "create", "--email", "Ops@Example.com", "--password", "secret-pass", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created user 1 (ops@example.com, admin): edit_posts, read_files, export_submissions")

	_, err = run(t, "user", "create", "--email", "ops@example.com", "--password", "secret-pass")
	assert.Error(t, err)

	_, err = run(t, "user", "create", "--email", "short@example.com", "--password", "short")
	assert.Error(t, err)

	_, err = run(t, "user", "create", "--email", "x@example.com", "--password", "secret-pass", "--role", "owner")
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	dsn := setupEnv(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)
	seedSubmission(t, dsn)

	out, err := run(t, "export-csv", "--form", "5", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "form 5: 1 rows")
	assert.Contains(t, out, "columns: Sub_ID, Date, Email, CV")

	path := filepath.Join(t.TempDir(), "out.csv")
	_, err = run(t, "export-csv", "--form", "5", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(data), "Sub_ID,Date,Email,CV\n1,2026/03/14,ann@example.com,https://forms.example.com/api/v1/files/9\n")

	_, err = run(t, "export-csv")
	assert.Error(t, err)
	_, err = run(t, "export-csv", "--form", "404")
	assert.Error(t, err)
}

func TestConfigFileOverridesEnvironment(t *testing.T) {
	dsn := setupEnv(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)
	seedSubmission(t, dsn)

	cfgPath := filepath.Join(t.TempDir(), "formsctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("public_base_url: https://cli.example.com\n"), 0o600))

	out, err := run(t, "--config", cfgPath, "export-csv", "--form", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "https://cli.example.com/api/v1/files/9")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate")
	assert.Error(t, err)
}

func TestSweepDrafts(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "sweep-drafts", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 drafts older than 1h0m0s and 0 spent nonces")
}
