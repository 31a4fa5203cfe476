package storage

import (
	"context"

	"edms/internal/shared/model"
)

// PersistentStore 持久化存储接口
//
// 设计原则：依赖倒置，调用方只依赖接口，初始化时注入实现。
// Get* 方法在实体不存在时返回 (nil, nil)，不返回 error。
type PersistentStore interface {
	// 用户
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserRole(ctx context.Context, userID string, role model.UserRole) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*model.User, error)

	// 文件元数据
	CreateFile(ctx context.Context, meta *model.FileMeta) error
	GetFile(ctx context.Context, key string) (*model.FileMeta, error)
	DeleteFile(ctx context.Context, key string) error
	ListFiles(ctx context.Context, q model.FileQuery) ([]*model.FileMeta, error)
	ListFilesByUploader(ctx context.Context, userID string) ([]*model.FileMeta, error)
	DeleteFilesByUploader(ctx context.Context, userID string) error

	Close() error
}
