package field

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxUploadBytes is the hard ceiling for any uploaded file.
const MaxUploadBytes int64 = 10485760

var extCleaner = regexp.MustCompile(`[^A-Za-z0-9]`)

// FileUpload holds a reference to a previously uploaded draft file.
type FileUpload struct{ base }

// Validate accepts a positive integer file id.
func (f *FileUpload) Validate(raw any) (any, error) {
	if err := f.checkRequired(raw); err != nil {
		return nil, err
	}
	if isEmpty(raw) {
		return int64(0), nil
	}
	id, ok := ParseID(raw)
	if !ok {
		return nil, f.fail(InvalidFileReference)
	}
	return id, nil
}

// AllowedExtensions returns the configured allowlist, or defaults when unset.
func (f *FileUpload) AllowedExtensions(defaults []string) []string {
	var out []string
	for _, ext := range strings.Split(f.cfg.AllowedExtensions, ",") {
		ext = strings.ToLower(extCleaner.ReplaceAllString(ext, ""))
		if ext != "" {
			out = append(out, ext)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

// MaxBytes is the smaller of the configured KB limit and MaxUploadBytes.
func (f *FileUpload) MaxBytes() int64 {
	if f.cfg.MaxFilesize <= 0 {
		return MaxUploadBytes
	}
	limit := f.cfg.MaxFilesize * 1000
	if limit > MaxUploadBytes {
		return MaxUploadBytes
	}
	return limit
}

// ParseID parses a positive integer id from a submitted or stored value.
func ParseID(raw any) (int64, bool) {
	var id int64
	switch v := raw.(type) {
	case int64:
		id = v
	case int:
		id = int64(v)
	case bool:
		return 0, false
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		id = int64(v)
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(Stringify(raw)), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	}
	return id, id > 0
}
