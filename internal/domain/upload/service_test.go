package upload

import (
	"bytes"
	"context"
	"errors"
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
	"properforms/internal/pkg/cipher"
	"properforms/internal/pkg/jwt"
)

type fakeFields map[string]*field.FileUpload

func (f fakeFields) UploadField(_ context.Context, formID int64, fieldID string) (*field.FileUpload, error) {
	fu, ok := f[fmt.Sprintf("%d:%s", formID, fieldID)]
	if !ok {
		return nil, errors.New("no such upload field")
	}
	return fu, nil
}

func uploadField(t *testing.T, cfg field.Config) *field.FileUpload {
	t.Helper()
	cfg.Type = field.KindFileUpload
	f, err := field.DefaultRegistry().Build(cfg)
	require.NoError(t, err)
	fu, ok := f.(*field.FileUpload)
	require.True(t, ok)
	return fu
}

type testEnv struct {
	svc    *Service
	db     *gorm.DB
	tokens *jwt.Service
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:upload_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&File{}, &UsedNonce{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	sealer, err := cipher.New("test-file-secret")
	require.NoError(t, err)
	tokens := jwt.New("test-jwt-secret", time.Hour)

	fields := fakeFields{
		"7:cv":    uploadField(t, field.Config{ID: "cv", Label: "CV", AllowedExtensions: "pdf, .TXT", MaxFilesize: 1}),
		"7:photo": uploadField(t, field.Config{ID: "photo", Label: "Photo"}),
	}
	svc := NewService(NewRepository(db), fields, tokens, sealer, zap.NewNop(), Options{
		DefaultExtensions: []string{"jpg", "png"},
		NonceTTL:          time.Hour,
	})
	return &testEnv{svc: svc, db: db, tokens: tokens}
}

func (e *testEnv) nonce(t *testing.T, formID int64, fieldID string) string {
	t.Helper()
	token, err := e.svc.IssueNonce(formID, fieldID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) countFiles(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&File{}).Count(&n).Error)
	return n
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var uerr *UploadError
	require.True(t, errors.As(err, &uerr), "expected *UploadError, got %v", err)
	return uerr.Reason
}

func readers() Principal {
	return &jwt.Claims{UserID: 1, Role: "reviewer", Capabilities: []string{"read_files"}}
}

func TestUploadStoresEncryptedDraft(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	body := []byte("hello, this is my cv")

	f, err := env.svc.Upload(ctx, Request{
		FormID:   7,
		FieldID:  "cv",
		Nonce:    env.nonce(t, 7, "cv"),
		Filename: "../../My CV.txt",
		MimeType: "text/plain",
		Size:     int64(len(body)),
		Content:  body,
	})
	require.NoError(t, err)
	assert.NotZero(t, f.ID)
	assert.Equal(t, StatusDraft, f.Status)
	assert.Equal(t, "My_CV.txt", f.Filename)
	assert.Regexp(t, `^draft-`, f.Title)

	stored, err := env.svc.repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(stored.Ciphertext, body))
	assert.Len(t, stored.Nonce, 24)

	content, err := env.svc.Open(ctx, f.ID, readers())
	require.NoError(t, err)
	assert.Equal(t, body, content.Data)
	assert.Equal(t, "text/plain", content.MimeType)
	assert.Equal(t, "My_CV.txt", content.Filename)
}

func TestUploadDetectsMissingMimeType(t *testing.T) {
	env := setupTestService(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	f, err := env.svc.Upload(context.Background(), Request{
		FormID: 7, FieldID: "photo", Nonce: env.nonce(t, 7, "photo"),
		Filename: "a.png", Content: png,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MimeType)
}

func TestUploadRejections(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	small := []byte("x")
	tooBig := bytes.Repeat([]byte("a"), 1001)

	cases := []struct {
		name string
		req  Request
		want Reason
	}{
		{"bad nonce", Request{FormID: 7, FieldID: "cv", Nonce: "forged", Filename: "a.pdf", Content: small}, NonceInvalid},
		{"nonce for other field", Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "photo"), Filename: "a.pdf", Content: small}, NonceInvalid},
		{"nonce for other form", Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 8, "cv"), Filename: "a.pdf", Content: small}, NonceInvalid},
		{"missing form id", Request{FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.pdf", Content: small}, FormIDMissing},
		{"no file", Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv")}, FileDataMissing},
		{"unknown field", Request{FormID: 7, FieldID: "nope", Nonce: env.nonce(t, 7, "nope"), Filename: "a.pdf", Content: small}, FieldConfigMissing},
		{"extension", Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.exe", Content: small}, FiletypeNotAllowed},
		{"default extensions", Request{FormID: 7, FieldID: "photo", Nonce: env.nonce(t, 7, "photo"), Filename: "a.pdf", Content: small}, FiletypeNotAllowed},
		{"too large", Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.pdf", Content: tooBig}, FileTooLarge},
		{"declared too large", Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.pdf", Size: 5000, Content: small}, FileTooLarge},
	}
	for _, tc := range cases {
		_, err := env.svc.Upload(ctx, tc.req)
		assert.Equal(t, tc.want, reasonOf(t, err), tc.name)
	}
	assert.Equal(t, int64(0), env.countFiles(t))
}

func TestUploadNonceIsSingleUse(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	req := Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.pdf", Content: []byte("%PDF")}

	_, err := env.svc.Upload(ctx, req)
	require.NoError(t, err)

	_, err = env.svc.Upload(ctx, req)
	assert.Equal(t, NonceInvalid, reasonOf(t, err))
	assert.ErrorIs(t, err, ErrNonceReplayed)
	assert.Equal(t, int64(1), env.countFiles(t))
}

func TestOpenRequiresCapability(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	f, err := env.svc.Upload(ctx, Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	_, err = env.svc.Open(ctx, f.ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Open(ctx, f.ID, &jwt.Claims{UserID: 2, Role: "viewer"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Open(ctx, f.ID+100, readers())
	assert.ErrorIs(t, err, ErrFileNotFound)

	editor := &jwt.Claims{UserID: 3, Role: "editor", Capabilities: []string{"edit_posts"}}
	content, err := env.svc.Open(ctx, f.ID, editor)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), content.Data)
}

func TestOpenTamperedFileIsCorrupt(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	f, err := env.svc.Upload(ctx, Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "a.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&File{}).Where("id = ?", f.ID).Update("field_id", "photo").Error)

	_, err = env.svc.Open(ctx, f.ID, readers())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestPromoteAndCheckReference(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	f, err := env.svc.Upload(ctx, Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "cv.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	assert.NoError(t, env.svc.CheckReference(ctx, f.ID, 7, "cv"))
	assert.ErrorIs(t, env.svc.CheckReference(ctx, f.ID, 7, "photo"), ErrFieldMismatch)
	assert.ErrorIs(t, env.svc.CheckReference(ctx, f.ID, 8, "cv"), ErrFieldMismatch)
	assert.ErrorIs(t, env.svc.CheckReference(ctx, 999, 7, "cv"), ErrFileNotFound)

	ok, err := env.svc.Promote(ctx, f.ID, 41, "photo")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.svc.Promote(ctx, f.ID, 41, "cv")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.svc.Promote(ctx, f.ID, 42, "cv")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := env.svc.Meta(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublish, stored.Status)
	require.NotNil(t, stored.SubmissionID)
	assert.Equal(t, int64(41), *stored.SubmissionID)
	assert.Equal(t, "cv.pdf", stored.Title)
	assert.ErrorIs(t, env.svc.CheckReference(ctx, f.ID, 7, "cv"), ErrAlreadyPublished)

	require.NoError(t, env.svc.DeleteForSubmission(ctx, 41))
	assert.Equal(t, int64(0), env.countFiles(t))
}

func TestSweepDrafts(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	old, err := env.svc.Upload(ctx, Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "old.pdf", Content: []byte("1")})
	require.NoError(t, err)
	kept, err := env.svc.Upload(ctx, Request{FormID: 7, FieldID: "cv", Nonce: env.nonce(t, 7, "cv"), Filename: "kept.pdf", Content: []byte("2")})
	require.NoError(t, err)
	_, err = env.svc.Promote(ctx, kept.ID, 1, "cv")
	require.NoError(t, err)

	env.svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	res, err := env.svc.SweepDrafts(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Drafts)
	assert.Equal(t, int64(2), res.Nonces)

	_, err = env.svc.Meta(ctx, old.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = env.svc.Meta(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "report_2024.pdf", sanitizeName("report 2024.pdf"))
	assert.Equal(t, "passwd", sanitizeName("../../etc/passwd"))
	assert.Equal(t, "x.txt", sanitizeName(`C:\Users\me\x.txt`))
	assert.Equal(t, "file.pdf", sanitizeName("@@@.pdf"))
	assert.Equal(t, "", sanitizeName(""))
}

func TestFileURL(t *testing.T) {
	assert.Equal(t, "https://example.com/api/v1/files/12", FileURL("https://example.com/", 12))
}
