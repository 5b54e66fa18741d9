package auth

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleEditor   UserRole = "editor"
	RoleReviewer UserRole = "reviewer"
)

// Capabilities checked by the form admin, file and export endpoints.
const (
	CapEditPosts         = "edit_posts"
	CapReadFiles         = "read_files"
	CapExportSubmissions = "export_submissions"
)

var roleCapabilities = map[UserRole][]string{
	RoleAdmin:    {CapEditPosts, CapReadFiles, CapExportSubmissions},
	RoleEditor:   {CapEditPosts, CapReadFiles},
	RoleReviewer: {CapReadFiles},
}

// CapabilitiesFor returns the capabilities granted to role.
func CapabilitiesFor(role UserRole) []string {
	caps := roleCapabilities[role]
	out := make([]string, len(caps))
	copy(out, caps)
	return out
}

func ValidRole(role UserRole) bool {
	_, ok := roleCapabilities[role]
	return ok
}

type User struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	Role                UserRole   `gorm:"not null" json:"role"`
	Name                string     `json:"name"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }
