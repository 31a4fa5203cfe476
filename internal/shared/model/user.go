package model

import (
	"regexp"
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleContributor UserRole = "contributor"
	UserRoleViewer      UserRole = "viewer"
)

// Valid 检查角色是否合法
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleContributor, UserRoleViewer:
		return true
	}
	return false
}

// User 用户
//
// UserID 即 Mongo 文档 _id，全局唯一；Email 另建唯一索引。
// Protected 标记系统账号：角色不可修改、账号不可删除。
type User struct {
	UserID       string    `json:"userid" bson:"_id"`
	FirstName    string    `json:"first_name" bson:"first_name"`
	LastName     string    `json:"last_name" bson:"last_name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never expose in JSON
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Role         UserRole  `json:"role" bson:"role"`
	Protected    bool      `json:"protected" bson:"protected"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// PublicUser 用户公开字段（会话与令牌中携带的数据，不含密码哈希）
type PublicUser struct {
	UserID    string   `json:"userid"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
}

// Public 返回用户的公开视图
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:    u.UserID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// CanUpload viewer 角色不允许上传
func (u PublicUser) CanUpload() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleContributor
}

// IsAdmin 是否管理员
func (u PublicUser) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

var phoneRegex = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)

// ValidPhone 电话号码必须为 123-456-7890 格式
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}
