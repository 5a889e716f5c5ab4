package models

import (
	"gorm.io/gorm"
)

// 用户角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户账户
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex:idx_username;size:64;not null"`
	Email    string `gorm:"uniqueIndex:idx_email;size:255;not null"`
	Password string `json:"-"`
	Role     string `gorm:"size:16;default:user;not null"`
	Enabled  bool   `gorm:"default:true;not null"`
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole 校验角色取值
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
