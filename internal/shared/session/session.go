// Package session 会话存储抽象
//
// 会话以 cookie 中的随机 ID 为键，保存登录用户的公开字段（不含密码哈希），
// 24 小时过期。生产环境用 Redis 实现；未配置 Redis 或测试时用内存实现。
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"edms/internal/shared/model"
)

// TTL 会话有效期，与签名令牌的有效期一致
const TTL = 24 * time.Hour

// Store 会话存储接口
//
// Get 在会话不存在或已过期时返回 (nil, nil)，不返回 error。
type Store interface {
	Get(ctx context.Context, id string) (*model.PublicUser, error)
	Set(ctx context.Context, id string, user *model.PublicUser) error
	Destroy(ctx context.Context, id string) error
	Close() error
}

// NewID 生成新的会话 ID
func NewID() string {
	return uuid.NewString()
}

// ============================================================================
// MemoryStore - 进程内会话存储
// ============================================================================

type memoryEntry struct {
	user      model.PublicUser
	expiresAt time.Time
}

// MemoryStore 内存会话存储，过期检查在读取时惰性执行
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.PublicUser, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, nil
	}
	user := entry.user
	return &user, nil
}

func (s *MemoryStore) Set(ctx context.Context, id string, user *model.PublicUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{user: *user, expiresAt: time.Now().Add(TTL)}
	return nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
