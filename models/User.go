package models

import "gorm.io/gorm"

// Roles an account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application account that can authenticate with the
// platform.
type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         string   `gorm:"type:varchar(16);default:user" json:"role"`
	Favorites    []Recipe `gorm:"many2many:user_favorites" json:"favorites,omitempty"`
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
