// Package auth 用户认证：会话/令牌双轨登录态、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"edms/internal/config"
	"edms/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyUser contextKey = "auth_user"

// Cookie 名称
const (
	SessionCookie = "edms_session"
	TokenCookie   = "edms_token"
)

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// 签名令牌
// ============================================================================

// Claims 签名令牌声明，携带用户公开字段，
// 用于在会话存储冷启动后重建会话
type Claims struct {
	jwt.RegisteredClaims
	Email     string         `json:"email,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Role      model.UserRole `json:"role,omitempty"`
}

// User 从声明还原用户公开字段
func (c *Claims) User() *model.PublicUser {
	return &model.PublicUser{
		UserID:    c.Subject,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
	}
}

// GenerateToken 为用户签发 24 小时令牌
func GenerateToken(cfg config.AuthConfig, user *model.PublicUser) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL)),
		},
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证令牌
func ParseToken(cfg config.AuthConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Cookie 辅助函数
// ============================================================================

// SetAuthCookies 设置会话 cookie 与签名令牌 cookie
// 两者均 HttpOnly、SameSite=Lax，生产环境加 Secure
func SetAuthCookies(w http.ResponseWriter, cfg config.AuthConfig, sessionID, token string) {
	maxAge := int(cfg.TokenTTL.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	if token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     TokenCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ClearAuthCookies 清除登录 cookie
func ClearAuthCookies(w http.ResponseWriter, cfg config.AuthConfig) {
	for _, name := range []string{SessionCookie, TokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithUser 将登录用户注入 context
func WithUser(ctx context.Context, user *model.PublicUser) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// GetUser 从 context 获取登录用户
func GetUser(ctx context.Context) *model.PublicUser {
	user, _ := ctx.Value(ctxKeyUser).(*model.PublicUser)
	return user
}
