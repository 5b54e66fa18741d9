package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the discriminator stored in a field's "type" key.
type Kind string

const (
	KindText        Kind = "text"
	KindTextArea    Kind = "textarea"
	KindNumbers     Kind = "numbers"
	KindEmail       Kind = "email"
	KindTel         Kind = "tel"
	KindSelect      Kind = "select"
	KindMultiselect Kind = "multiselect"
	KindRadio       Kind = "radio"
	KindCheckbox    Kind = "checkbox"
	KindFileUpload  Kind = "file_upload"
	KindDate        Kind = "date"
	KindCountry     Kind = "country"
	KindHidden      Kind = "hidden"
	KindConsent     Kind = "consent"
	KindSubmit      Kind = "submit"
)

// Field is one configured input of a form.
type Field interface {
	Config() Config
	// Validate returns the sanitized value or a *ValidationError.
	Validate(raw any) (any, error)
}

// Config is the persisted settings block of a single field.
type Config struct {
	ID                string  `json:"id"`
	Type              Kind    `json:"type"`
	Label             string  `json:"label,omitempty"`
	ErrorMsg          string  `json:"error_msg,omitempty"`
	Required          bool    `json:"is_required,omitempty"`
	Handler           string  `json:"pardot_handler,omitempty"`
	Placeholder       string  `json:"placeholder,omitempty"`
	CSSClass          string  `json:"css_class,omitempty"`
	DefaultOption     string  `json:"default_option,omitempty"`
	Options           Options `json:"options,omitempty"`
	Format            string  `json:"format,omitempty"`
	AllowedExtensions string  `json:"allowed_extensions,omitempty"`
	MaxFilesize       int64   `json:"max_filesize,omitempty"`
	ConsentText       string  `json:"consent_text,omitempty"`
}

// DecodeConfig parses a single stored field block. Unknown keys are rejected.
func DecodeConfig(data []byte) (Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode field config: %w", err)
	}
	cfg.ID = strings.TrimSpace(cfg.ID)
	return cfg, nil
}

// DecodeConfigs parses a stored field list, returning the configs that decoded
// and one error per block that did not.
func DecodeConfigs(data []byte) ([]Config, []error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []error{fmt.Errorf("decode field list: %w", err)}
	}
	out := make([]Config, 0, len(raw))
	var errs []error
	for i, block := range raw {
		cfg, err := DecodeConfig(block)
		if err != nil {
			errs = append(errs, fmt.Errorf("field #%d: %w", i, err))
			continue
		}
		out = append(out, cfg)
	}
	return out, errs
}

type base struct {
	cfg Config
}

func (b base) Config() Config { return b.cfg }

// checkRequired reports a MissingRequired error when a required value is empty.
func (b base) checkRequired(raw any) *ValidationError {
	if b.cfg.Required && isEmpty(raw) {
		return b.fail(MissingRequired)
	}
	return nil
}

func (b base) fail(kind ErrorKind) *ValidationError {
	return newValidationError(b.cfg, kind)
}

// Bound pairs a field with the value saved for one submission.
type Bound struct {
	Field
	Value any
}
