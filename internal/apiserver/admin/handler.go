// Package admin 管理后台：用户列表、角色调整与级联删除
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"edms/internal/apiserver/auth"
	"edms/internal/apiserver/render"
	"edms/internal/shared/model"
	"edms/internal/shared/storage"
)

// UserStore 用户管理存储接口
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	UpdateUserRole(ctx context.Context, userID string, role model.UserRole) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// FileStore 级联删除所需的文件存储接口
type FileStore interface {
	ListFilesByUploader(ctx context.Context, userID string) ([]*model.FileMeta, error)
	DeleteFilesByUploader(ctx context.Context, userID string) error
}

// ObjectDeleter 对象删除接口
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Handler 管理后台 HTTP 处理器
type Handler struct {
	users   UserStore
	files   FileStore
	objects ObjectDeleter
	render  *render.Renderer
}

// NewHandler 创建管理处理器
func NewHandler(users UserStore, files FileStore, objects ObjectDeleter, r *render.Renderer) *Handler {
	return &Handler{users: users, files: files, objects: objects, render: r}
}

// RegisterRoutes 注册管理路由，全部要求管理员角色
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin", auth.AdminOnly(h.AdminPage))
	mux.HandleFunc("POST /api/update-user-role", auth.AdminOnly(h.UpdateUserRole))
	mux.HandleFunc("POST /api/delete-user", auth.AdminOnly(h.DeleteUser))
}

// adminData 管理页视图数据
type adminData struct {
	User  *model.PublicUser
	Users []*model.User
	Roles []model.UserRole
}

// AdminPage 用户管理页
func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin] list users: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, http.StatusOK, "admin", adminData{
		User:  auth.GetUser(r.Context()),
		Users: users,
		Roles: []model.UserRole{model.UserRoleAdmin, model.UserRoleContributor, model.UserRoleViewer},
	})
}

// updateRoleRequest 角色调整请求体
type updateRoleRequest struct {
	UserID string `json:"userid"`
	Role   string `json:"role"`
}

// UpdateUserRole 调整用户角色
//
// 系统内置账号受保护，不可调整。
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userid is required")
		return
	}

	role := model.UserRole(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role: "+req.Role)
		return
	}

	target, err := h.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		log.Printf("[admin] get user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.Protected {
		writeError(w, http.StatusForbidden, "system accounts cannot be modified")
		return
	}

	if err := h.users.UpdateUserRole(ctx, req.UserID, role); err != nil {
		// 存储层同样拒绝受保护账号，查重与改动之间的竞态兜底
		if errors.Is(err, storage.ErrProtected) {
			writeError(w, http.StatusForbidden, "system accounts cannot be modified")
			return
		}
		log.Printf("[admin] update role %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	log.Printf("[admin] Role of %s changed to %s by %s", req.UserID, role, auth.GetUser(ctx).UserID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "userid": req.UserID, "role": role})
}

// deleteUserRequest 删除用户请求体
type deleteUserRequest struct {
	UserID string `json:"userid"`
}

// DeleteUser 删除用户并级联清理其全部文件
//
// 对象删除逐个尽力执行，单个失败不终止整体流程；
// 元数据按上传者批量删除，最后删除用户记录。
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := auth.GetUser(ctx)

	var req deleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userid is required")
		return
	}
	if req.UserID == actor.UserID {
		writeError(w, http.StatusForbidden, "cannot delete your own account")
		return
	}

	target, err := h.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		log.Printf("[admin] get user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.Protected {
		writeError(w, http.StatusForbidden, "system accounts cannot be deleted")
		return
	}

	userFiles, err := h.files.ListFilesByUploader(ctx, req.UserID)
	if err != nil {
		log.Printf("[admin] list files of %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to list user files")
		return
	}
	for _, f := range userFiles {
		if err := h.objects.Delete(ctx, f.Key); err != nil {
			log.Printf("[admin] delete object %s: %v", f.Key, err)
		}
	}
	if err := h.files.DeleteFilesByUploader(ctx, req.UserID); err != nil {
		log.Printf("[admin] delete file metadata of %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete user files")
		return
	}

	if err := h.users.DeleteUser(ctx, req.UserID); err != nil {
		if errors.Is(err, storage.ErrProtected) {
			writeError(w, http.StatusForbidden, "system accounts cannot be deleted")
			return
		}
		log.Printf("[admin] delete user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	log.Printf("[admin] User %s deleted by %s (%d files removed)", req.UserID, actor.UserID, len(userFiles))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "userid": req.UserID, "files_removed": len(userFiles)})
}

// ============================================================================
// JSON 响应辅助函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[admin] write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
