package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"properforms/internal/domain/auth"
	"properforms/internal/domain/field"
	"properforms/internal/pkg/cipher"
	"properforms/internal/pkg/jwt"
)

// FieldResolver finds the upload field a file is sent to.
type FieldResolver interface {
	UploadField(ctx context.Context, formID int64, fieldID string) (*field.FileUpload, error)
}

type nonceService interface {
	IssueNonce(action string, formID int64, ttl time.Duration) (string, string, error)
	VerifyNonce(token, action string) (*jwt.NonceClaims, error)
}

// Principal is whoever asks to read a file.
type Principal interface {
	Can(caps ...string) bool
}

// Request is one upload as received from the browser.
type Request struct {
	FormID   int64
	FieldID  string
	Nonce    string
	Filename string
	MimeType string
	// Size is the declared size; Content may be cut short when it is too large.
	Size    int64
	Content []byte
}

type Options struct {
	DefaultExtensions []string
	NonceTTL          time.Duration
}

// Service is the encrypted file store.
type Service struct {
	repo   Repository
	fields FieldResolver
	nonces nonceService
	sealer *cipher.Sealer
	log    *zap.Logger
	opts   Options
	now    func() time.Time
}

func NewService(repo Repository, fields FieldResolver, nonces nonceService, sealer *cipher.Sealer, log *zap.Logger, opts Options) *Service {
	if opts.NonceTTL <= 0 {
		opts.NonceTTL = 12 * time.Hour
	}
	return &Service{
		repo:   repo,
		fields: fields,
		nonces: nonces,
		sealer: sealer,
		log:    log,
		opts:   opts,
		now:    time.Now,
	}
}

// NonceAction is the action an upload nonce is bound to.
func NonceAction(fieldID string) string {
	return "fileupload-" + fieldID
}

// IssueNonce returns a single-use upload nonce for one field of a form.
func (s *Service) IssueNonce(formID int64, fieldID string) (string, error) {
	token, _, err := s.nonces.IssueNonce(NonceAction(fieldID), formID, s.opts.NonceTTL)
	return token, err
}

// DefaultExtensions is the allowlist used when a field sets none.
func (s *Service) DefaultExtensions() []string {
	return s.opts.DefaultExtensions
}

// Upload validates, encrypts and stores a draft. Every rejection is an
// *UploadError and leaves nothing behind.
func (s *Service) Upload(ctx context.Context, req Request) (*File, error) {
	req.FieldID = strings.TrimSpace(req.FieldID)
	if req.FieldID == "" {
		return nil, reject(NonceInvalid, errors.New("field id missing"))
	}
	claims, err := s.nonces.VerifyNonce(req.Nonce, NonceAction(req.FieldID))
	if err != nil {
		return nil, reject(NonceInvalid, err)
	}

	if req.FormID <= 0 {
		return nil, reject(FormIDMissing, nil)
	}
	if claims.FormID != 0 && claims.FormID != req.FormID {
		return nil, reject(NonceInvalid, fmt.Errorf("nonce issued for form %d", claims.FormID))
	}

	name := sanitizeName(req.Filename)
	if name == "" || len(req.Content) == 0 {
		return nil, reject(FileDataMissing, nil)
	}

	fu, err := s.fields.UploadField(ctx, req.FormID, req.FieldID)
	if err != nil {
		return nil, reject(FieldConfigMissing, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" || !slices.Contains(fu.AllowedExtensions(s.opts.DefaultExtensions), ext) {
		return nil, reject(FiletypeNotAllowed, fmt.Errorf("extension %q", ext))
	}

	size := req.Size
	if size < int64(len(req.Content)) {
		size = int64(len(req.Content))
	}
	if size > fu.MaxBytes() {
		return nil, reject(FileTooLarge, fmt.Errorf("%d bytes over limit %d", size, fu.MaxBytes()))
	}

	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(req.Content).String()
	}

	nonce, ciphertext, err := s.sealer.Seal(req.Content, additionalData(req.FormID, req.FieldID))
	if err != nil {
		return nil, fmt.Errorf("encrypt upload: %w", err)
	}

	now := s.now()
	f := &File{
		Status:     StatusDraft,
		FormID:     req.FormID,
		FieldID:    req.FieldID,
		Title:      "draft-" + uuid.NewString(),
		Filename:   name,
		MimeType:   mimeType,
		Size:       size,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateDraft(ctx, claims.ID, f); err != nil {
		if errors.Is(err, ErrNonceReplayed) {
			return nil, reject(NonceInvalid, err)
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.log.Info("draft file stored",
		zap.Int64("file_id", f.ID),
		zap.Int64("form_id", f.FormID),
		zap.String("field_id", f.FieldID),
		zap.Int64("size", f.Size),
	)
	return f, nil
}

// CheckReference confirms fileID is an unpublished draft for the given field.
func (s *Service) CheckReference(ctx context.Context, fileID, formID int64, fieldID string) error {
	f, err := s.repo.GetMeta(ctx, fileID)
	if err != nil {
		return err
	}
	if f.Status != StatusDraft {
		return ErrAlreadyPublished
	}
	if f.FormID != formID || f.FieldID != fieldID {
		return ErrFieldMismatch
	}
	return nil
}

// Promote links a draft to its submission. Files that are not drafts of
// fieldID are left alone and false is returned.
func (s *Service) Promote(ctx context.Context, fileID, submissionID int64, fieldID string) (bool, error) {
	if fileID <= 0 || submissionID <= 0 || fieldID == "" {
		return false, nil
	}
	ok, err := s.repo.Promote(ctx, fileID, submissionID, fieldID)
	if err != nil {
		return false, fmt.Errorf("promote file %d: %w", fileID, err)
	}
	if ok {
		s.log.Info("file published", zap.Int64("file_id", fileID), zap.Int64("submission_id", submissionID))
	}
	return ok, nil
}

// Open decrypts a file for a principal holding edit_posts or read_files.
func (s *Service) Open(ctx context.Context, fileID int64, p Principal) (*Content, error) {
	if p == nil || !p.Can(auth.CapEditPosts, auth.CapReadFiles) {
		return nil, ErrForbidden
	}
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if len(f.Ciphertext) == 0 {
		return nil, ErrCorrupt
	}
	data, err := s.sealer.Open(f.Nonce, f.Ciphertext, additionalData(f.FormID, f.FieldID))
	if err != nil {
		s.log.Error("file decrypt failed", zap.Int64("file_id", fileID), zap.Error(err))
		return nil, ErrCorrupt
	}
	return &Content{Filename: f.Filename, MimeType: f.MimeType, Data: data}, nil
}

// Meta returns the descriptor of a stored file without decrypting it.
func (s *Service) Meta(ctx context.Context, fileID int64) (*File, error) {
	return s.repo.GetMeta(ctx, fileID)
}

func (s *Service) DeleteForSubmission(ctx context.Context, submissionID int64) error {
	n, err := s.repo.DeleteBySubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("files deleted with submission", zap.Int64("submission_id", submissionID), zap.Int64("count", n))
	}
	return nil
}

// DeleteForForm removes every file uploaded to a deleted form.
func (s *Service) DeleteForForm(ctx context.Context, formID int64) error {
	n, err := s.repo.DeleteByForm(ctx, formID)
	if err != nil {
		return err
	}
	s.log.Info("files deleted with form", zap.Int64("form_id", formID), zap.Int64("count", n))
	return nil
}

// SweepResult counts what SweepDrafts removed.
type SweepResult struct {
	Drafts int64
	Nonces int64
}

// SweepDrafts deletes drafts never linked to a submission and consumed
// nonces that can no longer verify.
func (s *Service) SweepDrafts(ctx context.Context, olderThan time.Duration) (SweepResult, error) {
	var res SweepResult
	var err error
	if res.Drafts, err = s.repo.DeleteDraftsBefore(ctx, s.now().Add(-olderThan)); err != nil {
		return res, fmt.Errorf("sweep drafts: %w", err)
	}
	if res.Nonces, err = s.repo.DeleteNoncesBefore(ctx, s.now().Add(-s.opts.NonceTTL)); err != nil {
		return res, fmt.Errorf("sweep nonces: %w", err)
	}
	s.log.Info("upload sweep finished", zap.Int64("drafts", res.Drafts), zap.Int64("nonces", res.Nonces))
	return res, nil
}

// FileURL is the admin link that streams a stored file inline.
func FileURL(baseURL string, fileID int64) string {
	return strings.TrimRight(baseURL, "/") + "/api/v1/files/" + strconv.FormatInt(fileID, 10)
}

func additionalData(formID int64, fieldID string) []byte {
	return []byte(strconv.FormatInt(formID, 10) + ":" + fieldID)
}

// sanitizeName keeps the base name and replaces unsafe characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
				return r
			}
			return '_'
		}, s)
	}
	stem = clean(stem)
	if len(stem) > 120 {
		stem = stem[:120]
	}
	if strings.Trim(stem, "_") == "" {
		stem = "file"
	}
	if ext != "" {
		ext = "." + clean(strings.TrimPrefix(ext, "."))
	}
	return stem + ext
}
