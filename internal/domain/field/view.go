package field

// View is the public description of a field handed to the front end.
type View struct {
	ID          string   `json:"id"`
	Type        Kind     `json:"type"`
	Label       string   `json:"label,omitempty"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	CSSClass    string   `json:"css_class,omitempty"`
	Default     string   `json:"default_option,omitempty"`
	Options     Options  `json:"options,omitempty"`
	Format      string   `json:"format,omitempty"`
	Extensions  []string `json:"allowed_extensions,omitempty"`
	MaxBytes    int64    `json:"max_bytes,omitempty"`
	ConsentText string   `json:"consent_text,omitempty"`
	ErrorMsg    string   `json:"error_msg,omitempty"`
}

// Describe builds the view of f. Handler names stay server side.
func Describe(f Field, defaultExtensions []string) View {
	cfg := f.Config()
	v := View{
		ID:          cfg.ID,
		Type:        cfg.Type,
		Label:       cfg.Label,
		Required:    cfg.Required,
		Placeholder: cfg.Placeholder,
		CSSClass:    cfg.CSSClass,
		Default:     cfg.DefaultOption,
		Options:     cfg.Options,
		ConsentText: cfg.ConsentText,
		ErrorMsg:    cfg.ErrorMsg,
	}
	switch t := f.(type) {
	case *Date:
		v.Format = t.Format()
	case *FileUpload:
		v.Extensions = t.AllowedExtensions(defaultExtensions)
		v.MaxBytes = t.MaxBytes()
	}
	return v
}
