package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"properforms/internal/domain/field"
	"properforms/internal/domain/form"
	"properforms/internal/domain/submission"
	"properforms/internal/pkg/hooks"
)

type testEnv struct {
	db  *gorm.DB
	svc *Service
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:export_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&form.Form{}, &submission.Submission{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	log := zap.NewNop()
	events := hooks.New()
	forms := form.NewService(form.NewRepository(db), field.DefaultRegistry(), events, log, time.Minute)
	subs := submission.NewService(submission.NewRepository(db), forms, nil, events, log, time.Minute)
	return &testEnv{db: db, svc: NewService(forms, subs, "https://forms.example.com/", log)}
}

func (e *testEnv) seedForm(t *testing.T, id int64, configs ...field.Config) {
	t.Helper()
	data, err := json.Marshal(configs)
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&form.Form{
		ID:         id,
		Title:      fmt.Sprintf("Form %d", id),
		Status:     form.StatusPublish,
		FieldsJSON: string(data),
	}).Error)
}

func (e *testEnv) seedSubmission(t *testing.T, formID int64, at time.Time, values map[string]any, labels map[string]string) int64 {
	t.Helper()
	data, err := json.Marshal(values)
	require.NoError(t, err)
	lbl, err := json.Marshal(labels)
	require.NoError(t, err)
	sub := &submission.Submission{
		FormID:    formID,
		Status:    submission.StatusPublish,
		Data:      string(data),
		Labels:    string(lbl),
		CreatedAt: at,
	}
	require.NoError(t, e.db.Create(sub).Error)
	return sub.ID
}

var day = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestCollectContactForm(t *testing.T) {
	env := setupTestService(t)
	env.seedForm(t, 5,
		field.Config{ID: "email_field", Type: field.KindEmail, Label: "Email", Required: true},
		field.Config{ID: "text_field", Type: field.KindText, Label: "Message"},
	)
	id := env.seedSubmission(t, 5, day, map[string]any{"email_field": "a@b.com", "text_field": "hi"}, nil)

	rows, err := env.svc.Collect(context.Background(), 5, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Sub_ID", "Date", "Email", "Message"}, rows[0].Columns())
	assert.Equal(t, fmt.Sprint(id), rows[0].Get("Sub_ID"))
	assert.Equal(t, "2026/03/14", rows[0].Get("Date"))
	assert.Equal(t, "a@b.com", rows[0].Get("Email"))
	assert.Equal(t, "hi", rows[0].Get("Message"))
}

func TestCollectKeepsSubmissionDateBesideDateField(t *testing.T) {
	env := setupTestService(t)
	env.seedForm(t, 6,
		field.Config{ID: "dob", Type: field.KindDate, Label: "Date", Format: "YYYY-MM-DD"},
		field.Config{ID: "ref", Type: field.KindText, Label: "Sub_ID"},
		field.Config{ID: "other", Type: field.KindText, Label: "Date"},
	)
	env.seedSubmission(t, 6, day, map[string]any{"dob": "1990-01-01", "ref": "A-1", "other": "x"}, nil)

	rows, err := env.svc.Collect(context.Background(), 6, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Sub_ID", "Date", "Date (dob)", "Sub_ID (ref)", "Date (other)"}, rows[0].Columns())
	assert.Equal(t, "2026/03/14", rows[0].Get("Date"))
	assert.Equal(t, "1990-01-01", rows[0].Get("Date (dob)"))
	assert.Equal(t, "A-1", rows[0].Get("Sub_ID (ref)"))
	assert.Equal(t, "x", rows[0].Get("Date (other)"))
}

func TestCollectCorruptLabelSnapshotFallsBackToID(t *testing.T) {
	env := setupTestService(t)
	env.seedForm(t, 9, field.Config{ID: "name", Type: field.KindText, Label: "Name"})
	require.NoError(t, env.db.Create(&submission.Submission{
		FormID:    9,
		Status:    submission.StatusPublish,
		Data:      `{"name":"Ann","phone":"555"}`,
		Labels:    `{not json`,
		CreatedAt: day,
	}).Error)

	rows, err := env.svc.Collect(context.Background(), 9, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Sub_ID", "Date", "Name", "phone"}, rows[0].Columns())
	assert.Equal(t, "555", rows[0].Get("phone"))
}

func TestCollectRendersEachFieldKind(t *testing.T) {
	env := setupTestService(t)
	env.seedForm(t, 8,
		field.Config{ID: "name", Type: field.KindText, Label: "<b>Name</b>"},
		field.Config{ID: "topics", Type: field.KindCheckbox, Label: "Topics"},
		field.Config{ID: "agree", Type: field.KindConsent, Label: "Consent"},
		field.Config{ID: "cv", Type: field.KindFileUpload, Label: "CV"},
		field.Config{ID: "send", Type: field.KindSubmit, Label: "Send"},
	)
	env.seedSubmission(t, 8, day, map[string]any{
		"name":   "Ann",
		"topics": []string{"news", "events"},
		"agree":  "I agree to the terms",
		"cv":     42,
		"phone":  "555-0100",
	}, map[string]string{"phone": "Phone"})
	env.seedSubmission(t, 8, day.Add(time.Hour), map[string]any{"name": "Bob"}, nil)

	rows, err := env.svc.Collect(context.Background(), 8, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "Ann", first.Get("Name"))
	assert.Equal(t, "news, events", first.Get("Topics"))
	assert.Equal(t, "1", first.Get("Consent"))
	assert.Equal(t, "https://forms.example.com/api/v1/files/42", first.Get("CV"))
	assert.Equal(t, "555-0100", first.Get("Phone"))
	assert.NotContains(t, first.Columns(), "Send")

	second := rows[1]
	assert.Equal(t, "", second.Get("Consent"))
	assert.Equal(t, "", second.Get("CV"))
	assert.NotContains(t, second.Columns(), "Phone")

	cols, table := NormalizeColumns(rows)
	assert.Equal(t, []string{"Sub_ID", "Date", "Name", "Topics", "Consent", "CV", "Phone"}, cols)
	require.Len(t, table, 2)
	assert.Equal(t, "", table[1][6])
	assert.Equal(t, "Bob", table[1][2])
}

func TestCollectPagination(t *testing.T) {
	env := setupTestService(t)
	env.seedForm(t, 9, field.Config{ID: "n", Type: field.KindText, Label: "N"})
	for i := 0; i < 5; i++ {
		env.seedSubmission(t, 9, day.Add(time.Duration(i)*time.Minute), map[string]any{"n": fmt.Sprint(i)}, nil)
	}

	rows, err := env.svc.Collect(context.Background(), 9, 2, 2)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "0", rows[0].Get("N"))
	assert.Equal(t, "3", rows[3].Get("N"))

	rows, err = env.svc.Collect(context.Background(), 9, 2, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestCollectUnknownForm(t *testing.T) {
	env := setupTestService(t)
	_, err := env.svc.Collect(context.Background(), 404, 0, 0)
	assert.ErrorIs(t, err, form.ErrFormNotFound)
}

func TestCollectFormWithoutFields(t *testing.T) {
	env := setupTestService(t)
	env.seedForm(t, 10)
	env.seedSubmission(t, 10, day, map[string]any{"x": "y"}, nil)

	rows, err := env.svc.Collect(context.Background(), 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	cols, table := NormalizeColumns(rows)
	assert.Equal(t, []string{"Sub_ID"}, cols)
	assert.Empty(t, table)
}

func TestNormalizeColumnsKeepsSubIDFirst(t *testing.T) {
	a := newRow()
	a.Set("Email", "a@b.com")
	a.Set("Sub_ID", "1")
	b := newRow()
	b.Set("Sub_ID", "2")
	b.Set("Phone", "555")
	b.Set("Email", "c@d.com")

	cols, table := NormalizeColumns([]*Row{a, b})
	assert.Equal(t, []string{"Sub_ID", "Email", "Phone"}, cols)
	assert.Equal(t, [][]string{{"1", "a@b.com", ""}, {"2", "c@d.com", "555"}}, table)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"Sub_ID", "Message"}, [][]string{
		{"1", `He said "hi", then left`},
		{"2", "Zoë"},
	})
	require.NoError(t, err)

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out), `"He said ""hi"", then left"`)

	records, err := csv.NewReader(bytes.NewReader(out[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Sub_ID", "Message"},
		{"1", `He said "hi", then left`},
		{"2", "Zoë"},
	}, records)
}
