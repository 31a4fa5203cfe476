// Package files 文件仪表盘：上传、下载、删除与预签名直传
package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"edms/internal/apiserver/auth"
	"edms/internal/apiserver/render"
	"edms/internal/shared/model"
	"edms/internal/shared/objstore"
	"edms/internal/shared/storage"
)

// 上传限制
const (
	// MaxUploadBytes 经由 /upload 表单直传的请求体上限
	MaxUploadBytes = 100 << 20
	// PresignExpiry 预签名 PUT URL 有效期
	PresignExpiry = 5 * time.Minute
)

// FileStore 文件元数据存储接口
type FileStore interface {
	CreateFile(ctx context.Context, meta *model.FileMeta) error
	GetFile(ctx context.Context, key string) (*model.FileMeta, error)
	DeleteFile(ctx context.Context, key string) error
	ListFiles(ctx context.Context, query model.FileQuery) ([]*model.FileMeta, error)
}

// ObjectStore 对象存储接口
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (objstore.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	PresignedPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	ObjectURL(key string) string
}

// UserStore 通知收件人查询接口
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
}

// Notifier 尽力而为的通知接口
type Notifier interface {
	Send(to, subject, body string)
}

// Handler 文件 HTTP 处理器
type Handler struct {
	store    FileStore
	users    UserStore
	objects  ObjectStore
	render   *render.Renderer
	notifier Notifier
}

// NewHandler 创建文件处理器
func NewHandler(store FileStore, users UserStore, objects ObjectStore, r *render.Renderer, notifier Notifier) *Handler {
	return &Handler{store: store, users: users, objects: objects, render: r, notifier: notifier}
}

// RegisterRoutes 注册文件相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /dashboard", h.Dashboard)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("GET /delete/{key}", h.Delete)
	mux.HandleFunc("GET /download/{key}", h.Download)
	mux.HandleFunc("POST /api/get-signed-url", h.GetSignedURL)
	mux.HandleFunc("POST /api/confirm-upload", h.ConfirmUpload)
}

// dashboardData 仪表盘视图数据
type dashboardData struct {
	User       *model.PublicUser
	Files      []*model.FileMeta
	Search     string
	Category   model.FileCategory
	Sort       model.SortKey
	Categories []model.FileCategory
	SortKeys   []model.SortKey
}

// Dashboard 文件列表页，支持搜索/分类/排序
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	query := model.FileQuery{
		Search: r.URL.Query().Get("search"),
		Sort:   model.ParseSortKey(r.URL.Query().Get("sort")),
	}
	if cat := model.FileCategory(r.URL.Query().Get("category")); cat.Valid() {
		query.Category = cat
	}

	filesList, err := h.store.ListFiles(r.Context(), query)
	if err != nil {
		log.Printf("[files] list files: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, http.StatusOK, "dashboard", dashboardData{
		User:       user,
		Files:      filesList,
		Search:     query.Search,
		Category:   query.Category,
		Sort:       query.Sort,
		Categories: model.Categories,
		SortKeys:   model.SortKeys,
	})
}

// Upload 表单直传：对象写入存储后登记元数据
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.GetUser(ctx)

	if !user.CanUpload() {
		uploadsTotal.WithLabelValues("forbidden").Inc()
		h.render.Result(w, http.StatusForbidden, user, "Upload Denied",
			"Viewers cannot upload files. Contact an administrator for access.", "/dashboard")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			uploadsTotal.WithLabelValues("too_large").Inc()
			h.render.Result(w, http.StatusOK, user, "Upload Failed",
				"File is too large. The maximum upload size is 100 MB.", "/dashboard")
			return
		}
		h.render.Result(w, http.StatusOK, user, "Upload Failed",
			"Could not read the uploaded file. Please try again.", "/dashboard")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.render.Result(w, http.StatusOK, user, "Upload Failed",
			"No file was selected.", "/dashboard")
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")

	category := model.FileCategory(r.FormValue("category"))
	if !category.Valid() {
		category = model.InferCategory(contentType)
	}

	key := model.NewStorageKey(fileName)
	if err := h.objects.Upload(ctx, key, file, header.Size, contentType); err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		log.Printf("[files] upload object %s: %v", key, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	meta := &model.FileMeta{
		Key:         key,
		FileName:    fileName,
		URL:         h.objects.ObjectURL(key),
		ContentType: contentType,
		Size:        header.Size,
		UploadedAt:  time.Now(),
		UploadedBy:  user.UserID,
		Description: r.FormValue("description"),
		Tags:        model.ParseTags(r.FormValue("tags")),
		Category:    category,
	}
	if err := h.store.CreateFile(ctx, meta); err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		log.Printf("[files] save metadata %s: %v", key, err)
		// 回滚对象，避免无元数据的孤儿对象
		if derr := h.objects.Delete(ctx, key); derr != nil {
			log.Printf("[files] rollback object %s: %v", key, derr)
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	uploadBytes.Observe(float64(header.Size))
	if h.notifier != nil {
		h.notifier.Send(user.Email, "File uploaded", "Your file "+fileName+" has been uploaded to EDMS.")
	}
	log.Printf("[files] Uploaded %s (%d bytes) by %s", key, header.Size, user.UserID)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Delete 删除文件：先删对象再删元数据，再通知上传者
//
// 任何登录用户都可删除任意文件，与上传者无关。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		http.Error(w, "Invalid file key", http.StatusBadRequest)
		return
	}

	// 删除前取元数据：既区分未知键，也拿到通知收件人
	meta, err := h.store.GetFile(ctx, key)
	if err != nil {
		log.Printf("[files] get metadata %s: %v", key, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if meta == nil {
		deletesTotal.WithLabelValues("not_found").Inc()
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	if err := h.objects.Delete(ctx, key); err != nil {
		deletesTotal.WithLabelValues("error").Inc()
		log.Printf("[files] delete object %s: %v", key, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	// 并发删除撞车时元数据已不在，视为已删除
	if err := h.store.DeleteFile(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		deletesTotal.WithLabelValues("error").Inc()
		log.Printf("[files] delete metadata %s: %v", key, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.notifyUploader(ctx, meta.UploadedBy, "File deleted",
		"Your file "+meta.FileName+" has been deleted from EDMS.")

	deletesTotal.WithLabelValues("ok").Inc()
	log.Printf("[files] Deleted %s", key)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// notifyUploader 按上传者查邮箱后发通知，查询失败只记日志
func (h *Handler) notifyUploader(ctx context.Context, userID, subject, body string) {
	if h.notifier == nil || userID == "" {
		return
	}
	uploader, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("[files] notify lookup %s: %v", userID, err)
		return
	}
	if uploader == nil || uploader.Email == "" {
		return
	}
	h.notifier.Send(uploader.Email, subject, body)
}

// Download 下载文件，以附件形式流式返回
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		http.Error(w, "Invalid file key", http.StatusBadRequest)
		return
	}

	meta, err := h.store.GetFile(ctx, key)
	if err != nil {
		log.Printf("[files] get metadata %s: %v", key, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	obj, err := h.objects.Download(ctx, key)
	if err != nil {
		downloadsTotal.WithLabelValues("not_found").Inc()
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer obj.Close()

	fileName := key
	contentType := "application/octet-stream"
	if meta != nil {
		if meta.FileName != "" {
			fileName = meta.FileName
		}
		if meta.ContentType != "" {
			contentType = meta.ContentType
		}
		if meta.Size > 0 {
			w.Header().Set("Content-Length", fmt.Sprint(meta.Size))
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+model.SanitizeFilename(fileName)+`"`)
	if _, err := io.Copy(w, obj); err != nil {
		log.Printf("[files] stream %s: %v", key, err)
		return
	}
	downloadsTotal.WithLabelValues("ok").Inc()
}

// ============================================================================
// 预签名直传 API
// ============================================================================

// signURLRequest 预签名请求体
type signURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// GetSignedURL 生成限时预签名 PUT URL，客户端凭此绕过服务端直传对象
func (h *Handler) GetSignedURL(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if !user.CanUpload() {
		writeError(w, http.StatusForbidden, "upload permission required")
		return
	}

	var req signURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	key := model.NewStorageKey(filepath.Base(req.Filename))
	signedURL, err := h.objects.PresignedPut(r.Context(), key, PresignExpiry)
	if err != nil {
		log.Printf("[files] presign %s: %v", key, err)
		writeError(w, http.StatusInternalServerError, "failed to generate signed url")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "url": signedURL})
}

// confirmUploadRequest 直传确认请求体
type confirmUploadRequest struct {
	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Category    string `json:"category"`
}

// ConfirmUpload 直传完成后登记元数据
//
// 大小与内容类型以对象存储的 Stat 结果为准，不信任客户端上报值。
func (h *Handler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.GetUser(ctx)
	if !user.CanUpload() {
		writeError(w, http.StatusForbidden, "upload permission required")
		return
	}

	var req confirmUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	info, err := h.objects.Stat(ctx, req.Key)
	if err != nil {
		writeError(w, http.StatusNotFound, "object not found, upload may have failed")
		return
	}

	category := model.FileCategory(req.Category)
	if !category.Valid() {
		category = model.InferCategory(info.ContentType)
	}
	fileName := filepath.Base(req.FileName)
	if fileName == "" || fileName == "." {
		fileName = req.Key
	}

	meta := &model.FileMeta{
		Key:         req.Key,
		FileName:    fileName,
		URL:         h.objects.ObjectURL(req.Key),
		ContentType: info.ContentType,
		Size:        info.Size,
		UploadedAt:  time.Now(),
		UploadedBy:  user.UserID,
		Description: req.Description,
		Tags:        model.ParseTags(req.Tags),
		Category:    category,
	}
	if err := h.store.CreateFile(ctx, meta); err != nil {
		log.Printf("[files] confirm save metadata %s: %v", req.Key, err)
		writeError(w, http.StatusInternalServerError, "failed to save metadata")
		return
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	uploadBytes.Observe(float64(info.Size))
	if h.notifier != nil {
		h.notifier.Send(user.Email, "File uploaded", "Your file "+fileName+" has been uploaded to EDMS.")
	}
	log.Printf("[files] Confirmed upload %s (%d bytes) by %s", req.Key, info.Size, user.UserID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": req.Key})
}

// ============================================================================
// JSON 响应辅助函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[files] write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
