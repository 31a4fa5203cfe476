package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edms/internal/shared/model"
	"edms/internal/shared/session"
)

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path   string
		public bool
	}{
		{"/", true},
		{"/login", true},
		{"/register", true},
		{"/loginSubmit", true},
		{"/registerSubmit", true},
		{"/health", true},
		{"/metrics", true},
		{"/static/style.css", true},
		{"/favicon.ico", true},
		{"/dashboard", false},
		{"/admin", false},
		{"/upload", false},
		{"/download/123-a.pdf", false},
		{"/api/get-signed-url", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.public, isPublicPath(tt.path))
		})
	}
}

// echoUser 回显 context 中的用户 ID
func echoUser(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var got string
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := GetUser(r.Context()); u != nil {
			got = u.UserID
		}
		w.WriteHeader(http.StatusOK)
	}), &got
}

func TestMiddlewareRedirectsAnonymous(t *testing.T) {
	mw := NewMiddleware(testAuthCfg, session.NewMemoryStore())
	next, _ := echoUser(t)

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMiddlewarePublicPathPassesAnonymous(t *testing.T) {
	mw := NewMiddleware(testAuthCfg, session.NewMemoryStore())
	next, got := echoUser(t)

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, httptest.NewRequest("GET", "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *got)
}

func TestMiddlewareSessionAuth(t *testing.T) {
	sessions := session.NewMemoryStore()
	mw := NewMiddleware(testAuthCfg, sessions)
	next, got := echoUser(t)

	id := session.NewID()
	require.NoError(t, sessions.Set(context.Background(), id, testPublicUser))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", *got)
}

// 令牌有效但会话缺失时（如会话存储重启），应从令牌重建会话后放行
func TestMiddlewareTokenRepopulatesSession(t *testing.T) {
	sessions := session.NewMemoryStore()
	mw := NewMiddleware(testAuthCfg, sessions)
	next, got := echoUser(t)

	token, err := GenerateToken(testAuthCfg, testPublicUser)
	require.NoError(t, err)

	staleID := session.NewID()
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: staleID})
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", *got)

	// 会话被重建
	user, err := sessions.Get(context.Background(), staleID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.UserID)
}

func TestMiddlewareBadTokenRedirects(t *testing.T) {
	mw := NewMiddleware(testAuthCfg, session.NewMemoryStore())
	next, _ := echoUser(t)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "garbage"})

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	handler := AdminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 无用户
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/admin", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// 非管理员
	req := httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(WithUser(req.Context(), testPublicUser))
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// 管理员
	adminUser := &model.PublicUser{UserID: "root", Role: model.UserRoleAdmin}
	req = httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(WithUser(req.Context(), adminUser))
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
