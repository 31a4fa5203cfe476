package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edms/internal/apiserver/render"
	"edms/internal/shared/model"
	"edms/internal/shared/session"
	"edms/internal/shared/storage"
)

// ============================================================================
// 测试替身
// ============================================================================

type fakeUserStore struct {
	users map[string]*model.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.UserID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	f.users[user.UserID] = user
	return nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID], nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Send(to, subject, body string) {
	f.sent = append(f.sent, to+": "+subject)
}

func newTestHandler(t *testing.T) (*Handler, *fakeUserStore, session.Store, *fakeNotifier) {
	t.Helper()
	r, err := render.New()
	require.NoError(t, err)

	store := newFakeUserStore()
	sessions := session.NewMemoryStore()
	notifier := &fakeNotifier{}
	return NewHandler(store, sessions, testAuthCfg, r, notifier), store, sessions, notifier
}

func postForm(h http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func registerForm(userID, email, password string) url.Values {
	return url.Values{
		"first_name":   {"Alice"},
		"last_name":    {"Smith"},
		"userid":       {userID},
		"email":        {email},
		"password":     {password},
		"confirm_pass": {password},
		"phone":        {"123-456-7890"},
	}
}

// ============================================================================
// 注册
// ============================================================================

func TestRegisterSuccess(t *testing.T) {
	h, store, _, notifier := newTestHandler(t)

	rec := postForm(h.Register, "/registerSubmit", registerForm("alice", "alice@x.com", "pw1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration Successful")

	created := store.users["alice"]
	require.NotNil(t, created)
	assert.Equal(t, model.UserRoleContributor, created.Role)
	assert.False(t, created.Protected)
	assert.NotEqual(t, "pw1", created.PasswordHash)
	assert.True(t, CheckPassword("pw1", created.PasswordHash))

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "alice@x.com")
}

func TestRegisterDuplicateUserID(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	postForm(h.Register, "/registerSubmit", registerForm("alice", "alice@x.com", "pw1"))
	rec := postForm(h.Register, "/registerSubmit", registerForm("alice", "other@x.com", "pw2"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User ID already exists")
}

// 第二个账号用已占用的邮箱：报邮箱冲突，原账号凭据不受影响
func TestRegisterDuplicateEmail(t *testing.T) {
	h, store, _, _ := newTestHandler(t)

	postForm(h.Register, "/registerSubmit", registerForm("alice", "alice@x.com", "pw1"))
	rec := postForm(h.Register, "/registerSubmit", registerForm("bob", "alice@x.com", "pw2"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")

	assert.Nil(t, store.users["bob"])
	assert.True(t, CheckPassword("pw1", store.users["alice"].PasswordHash))
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h, store, _, _ := newTestHandler(t)

	form := registerForm("alice", "alice@x.com", "pw1")
	form.Set("confirm_pass", "pw2")
	rec := postForm(h.Register, "/registerSubmit", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")
	assert.Empty(t, store.users)
}

func TestRegisterInvalidPhone(t *testing.T) {
	h, store, _, _ := newTestHandler(t)

	form := registerForm("alice", "alice@x.com", "pw1")
	form.Set("phone", "12345")
	rec := postForm(h.Register, "/registerSubmit", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "123-456-7890")
	assert.Empty(t, store.users)
}

func TestRegisterMissingFields(t *testing.T) {
	h, store, _, _ := newTestHandler(t)

	form := registerForm("", "alice@x.com", "pw1")
	rec := postForm(h.Register, "/registerSubmit", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")
	assert.Empty(t, store.users)
}

func TestRegisterStoreError(t *testing.T) {
	h, store, _, _ := newTestHandler(t)
	store.err = assert.AnError

	rec := postForm(h.Register, "/registerSubmit", registerForm("alice", "alice@x.com", "pw1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ============================================================================
// 登录 / 退出
// ============================================================================

func TestLoginSuccess(t *testing.T) {
	h, _, sessions, _ := newTestHandler(t)

	postForm(h.Register, "/registerSubmit", registerForm("alice", "alice@x.com", "pw1"))
	rec := postForm(h.Login, "/loginSubmit", url.Values{
		"userid":   {"alice"},
		"password": {"pw1"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	// 会话与令牌 cookie 均已设置
	cookies := rec.Result().Cookies()
	var sessionID, token string
	for _, c := range cookies {
		switch c.Name {
		case SessionCookie:
			sessionID = c.Value
			assert.True(t, c.HttpOnly)
		case TokenCookie:
			token = c.Value
		}
	}
	require.NotEmpty(t, sessionID)
	require.NotEmpty(t, token)

	user, err := sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.UserID)

	claims, err := ParseToken(testAuthCfg, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestLoginUnknownUser(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	rec := postForm(h.Login, "/loginSubmit", url.Values{
		"userid":   {"ghost"},
		"password": {"pw"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	postForm(h.Register, "/registerSubmit", registerForm("alice", "alice@x.com", "pw1"))
	rec := postForm(h.Login, "/loginSubmit", url.Values{
		"userid":   {"alice"},
		"password": {"nope"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect password")
}

func TestLoginStoreError(t *testing.T) {
	h, store, _, _ := newTestHandler(t)
	store.err = assert.AnError

	rec := postForm(h.Login, "/loginSubmit", url.Values{
		"userid":   {"alice"},
		"password": {"pw1"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogout(t *testing.T) {
	h, _, sessions, _ := newTestHandler(t)

	id := session.NewID()
	require.NoError(t, sessions.Set(context.Background(), id, testPublicUser))

	req := httptest.NewRequest("GET", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// 会话已销毁
	user, err := sessions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, user)

	// cookie 已清除
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge, c.Name)
	}
}

// ============================================================================
// 系统账号初始化
// ============================================================================

func TestSeedSystemAccounts(t *testing.T) {
	store := newFakeUserStore()
	ctx := context.Background()

	require.NoError(t, SeedSystemAccounts(ctx, store))

	for _, id := range []string{"admin", "contributor", "viewer"} {
		u := store.users[id]
		require.NotNil(t, u, id)
		assert.True(t, u.Protected)
		assert.Equal(t, model.UserRole(id), u.Role)
	}

	// 幂等：重复执行不报错、不覆盖
	adminHash := store.users["admin"].PasswordHash
	require.NoError(t, SeedSystemAccounts(ctx, store))
	assert.Equal(t, adminHash, store.users["admin"].PasswordHash)
}
