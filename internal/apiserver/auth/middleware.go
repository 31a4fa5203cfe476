package auth

import (
	"log"
	"net/http"
	"strings"

	"edms/internal/config"
	"edms/internal/shared/model"
	"edms/internal/shared/session"
)

// 免认证路由精确匹配
var publicExact = map[string]bool{
	"/":               true,
	"/login":          true,
	"/register":       true,
	"/loginSubmit":    true,
	"/registerSubmit": true,
	"/health":         true,
	"/metrics":        true,
}

// 免认证路由白名单（前缀匹配，静态资源）
var publicPrefixes = []string{
	"/static/",
	"/favicon",
}

func isPublicPath(path string) bool {
	if publicExact[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 会话/令牌认证中间件
//
// 登录态按顺序解析：先查会话存储，会话未命中再验证签名令牌；
// 令牌有效而会话缺失（如会话存储冷启动）时，用令牌声明重建会话后放行。
// 两者都失败则 302 跳转到登录页。
type Middleware struct {
	cfg      config.AuthConfig
	sessions session.Store
}

// NewMiddleware 创建认证中间件
func NewMiddleware(cfg config.AuthConfig, sessions session.Store) *Middleware {
	return &Middleware{cfg: cfg, sessions: sessions}
}

// Wrap 包装下游 handler
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			// 公开页面也注入登录态（导航栏展示用），失败不拦截
			if user, _, _ := m.authenticate(r); user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
			return
		}

		user, sessionID, fromToken := m.authenticate(r)
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// 令牌通过但会话缺失：在 handler 执行前重建会话
		if fromToken {
			if sessionID == "" {
				sessionID = session.NewID()
				SetAuthCookies(w, m.cfg, sessionID, "")
			}
			if err := m.sessions.Set(r.Context(), sessionID, user); err != nil {
				log.Printf("[auth] session repopulate failed: %v", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// authenticate 解析请求的登录态：会话优先，其次验证签名令牌
//
// 纯查询，无副作用；返回 (用户, 会话ID, 是否来自令牌)。
// 坏签名/过期令牌静默视为未登录。
func (m *Middleware) authenticate(r *http.Request) (*model.PublicUser, string, bool) {
	var sessionID string
	if c, err := r.Cookie(SessionCookie); err == nil {
		sessionID = c.Value
	}

	if sessionID != "" {
		user, err := m.sessions.Get(r.Context(), sessionID)
		if err != nil {
			log.Printf("[auth] session lookup failed: %v", err)
		}
		if user != nil {
			return user, sessionID, false
		}
	}

	if m.cfg.JWTSecret == "" {
		return nil, sessionID, false
	}
	c, err := r.Cookie(TokenCookie)
	if err != nil {
		return nil, sessionID, false
	}
	claims, err := ParseToken(m.cfg, c.Value)
	if err != nil {
		return nil, sessionID, false
	}
	return claims.User(), sessionID, true
}

// AdminOnly 管理员专属路由中间件
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin() {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
