package upload

import "time"

const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// File is an uploaded attachment stored encrypted in the database. It starts
// as a draft and is published once a submission references it.
type File struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Status       string    `gorm:"column:status;size:20;index;not null" json:"status"`
	FormID       int64     `gorm:"column:form_id;index;not null" json:"form_id"`
	FieldID      string    `gorm:"column:field_id;size:191;not null" json:"field_id"`
	SubmissionID *int64    `gorm:"column:submission_id;index" json:"submission_id,omitempty"`
	Title        string    `gorm:"column:title;size:255" json:"title"`
	Filename     string    `gorm:"column:filename;size:255" json:"filename"`
	MimeType     string    `gorm:"column:mime_type;size:255" json:"mime_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	Nonce        []byte    `gorm:"column:nonce" json:"-"`
	Ciphertext   []byte    `gorm:"column:ciphertext" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (File) TableName() string { return "files" }

// UsedNonce records a consumed upload nonce so it cannot be replayed.
type UsedNonce struct {
	ID      string    `gorm:"column:id;primaryKey;size:64"`
	FieldID string    `gorm:"column:field_id;size:191"`
	UsedAt  time.Time `gorm:"column:used_at;index"`
}

func (UsedNonce) TableName() string { return "upload_nonces" }

// Descriptor is what the browser gets back after an upload.
type Descriptor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"type"`
	Size     int64  `json:"size"`
}

func (f *File) Descriptor() Descriptor {
	return Descriptor{ID: f.ID, Name: f.Filename, MimeType: f.MimeType, Size: f.Size}
}

// Content is a decrypted file ready to stream.
type Content struct {
	Filename string
	MimeType string
	Data     []byte
}
