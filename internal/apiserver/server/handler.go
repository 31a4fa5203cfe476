// Package server HTTP 服务组装：路由、中间件链与健康检查
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edms/internal/apiserver/admin"
	"edms/internal/apiserver/auth"
	"edms/internal/apiserver/files"
	"edms/internal/apiserver/render"
	"edms/internal/shared/model"
	"edms/web"
)

// Handler 聚合全部子处理器
type Handler struct {
	render  *render.Renderer
	authMW  *auth.Middleware
	authH   *auth.Handler
	filesH  *files.Handler
	adminH  *admin.Handler
	version string
}

// NewHandler 创建聚合处理器
func NewHandler(r *render.Renderer, authMW *auth.Middleware, authH *auth.Handler, filesH *files.Handler, adminH *admin.Handler, version string) *Handler {
	return &Handler{
		render:  r,
		authMW:  authMW,
		authH:   authH,
		filesH:  filesH,
		adminH:  adminH,
		version: version,
	}
}

// Router 构建完整路由，外层依次套指标与认证中间件
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /static/", http.FileServerFS(web.Static))

	h.authH.RegisterRoutes(mux)
	h.filesH.RegisterRoutes(mux)
	h.adminH.RegisterRoutes(mux)

	return metricsMiddleware(h.authMW.Wrap(mux))
}

// indexData 首页视图数据
type indexData struct {
	User *model.PublicUser
}

// Index 落地页
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "index", indexData{User: auth.GetUser(r.Context())})
}

// Health 存活探针
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": h.version,
	}); err != nil {
		log.Printf("[server] write health: %v", err)
	}
}
