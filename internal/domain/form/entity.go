package form

import (
	"time"

	"properforms/internal/domain/field"
)

const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// Form is the stored definition: the ordered field list as JSON plus the
// submission handling settings.
type Form struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;size:255;index;not null" json:"title"`
	Status      string    `gorm:"column:status;size:20;index;not null" json:"status"`
	FieldsJSON  string    `gorm:"column:fields;type:text" json:"-"`
	Notify      bool      `gorm:"column:notify" json:"notify"`
	NotifyEmail string    `gorm:"column:notify_email;size:255" json:"notify_email,omitempty"`
	PostEnabled bool      `gorm:"column:post_enabled" json:"post_enabled"`
	PostURL     string    `gorm:"column:post_url;size:2048" json:"post_url,omitempty"`
	ThankYou    string    `gorm:"column:thank_you;type:text" json:"thank_you,omitempty"`
	RedirectURL string    `gorm:"column:redirect_url;size:2048" json:"redirect_url,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Form) TableName() string { return "forms" }

func (f *Form) Published() bool { return f.Status == StatusPublish }

// Loaded is a form with its fields built through the registry, in stored order.
type Loaded struct {
	Form
	Fields []field.Field
}

// Field returns the field with the given id.
func (l *Loaded) Field(id string) (field.Field, bool) {
	for _, f := range l.Fields {
		if f.Config().ID == id {
			return f, true
		}
	}
	return nil, false
}

// Configs returns the configuration of every loaded field.
func (l *Loaded) Configs() []field.Config {
	out := make([]field.Config, 0, len(l.Fields))
	for _, f := range l.Fields {
		out = append(out, f.Config())
	}
	return out
}
