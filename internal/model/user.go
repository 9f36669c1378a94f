package model

import (
	"gorm.io/gorm"
)

// Роли пользователей платформы
const (
	RoleClient = "client"
	RoleCoach  = "coach"
	RoleAdmin  = "admin"
)

type User struct {
	gorm.Model
	Username          string `json:"username" gorm:"uniqueIndex"`
	Password          string `json:"password"`
	Role              string `json:"role" gorm:"default:client"`
	DisplayName       string `json:"display_name"`
	ProfilePictureKey string `json:"profile_picture_key"`
}

func (u *User) SanitizePassword() {
	u.Password = ""
}

func (u *User) EnsureDisplayName() {
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}
}

// ValidRole проверяет, что роль из числа поддерживаемых
func ValidRole(role string) bool {
	return role == RoleClient || role == RoleCoach || role == RoleAdmin
}
