package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"edms/internal/apiserver/render"
	"edms/internal/config"
	"edms/internal/shared/model"
	"edms/internal/shared/session"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Notifier 尽力而为的通知接口
type Notifier interface {
	Send(to, subject, body string)
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store    UserStore
	sessions session.Store
	cfg      config.AuthConfig
	render   *render.Renderer
	notifier Notifier
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, sessions session.Store, cfg config.AuthConfig, r *render.Renderer, notifier Notifier) *Handler {
	return &Handler{store: store, sessions: sessions, cfg: cfg, render: r, notifier: notifier}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("GET /register", h.RegisterPage)
	mux.HandleFunc("POST /registerSubmit", h.Register)
	mux.HandleFunc("POST /loginSubmit", h.Login)
	mux.HandleFunc("GET /logout", h.Logout)
}

// pageData 表单页数据
type pageData struct {
	User *model.PublicUser
}

// LoginPage 登录表单
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "login", pageData{User: GetUser(r.Context())})
}

// RegisterPage 注册表单
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "register", pageData{User: GetUser(r.Context())})
}

// Register 用户注册
//
// 所有校验失败都是用户可纠正的输入问题，渲染带区分文案的结果页，
// 统一返回 HTTP 200 而非 4xx/5xx。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := GetUser(ctx)

	firstName := r.FormValue("first_name")
	lastName := r.FormValue("last_name")
	userID := r.FormValue("userid")
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_pass")
	phone := r.FormValue("phone")
	role := r.FormValue("role")

	if userID == "" || email == "" || password == "" {
		h.render.Result(w, http.StatusOK, user, "Registration Failed",
			"User ID, email and password are required.", "/register")
		return
	}

	// 查重：区分 userid 冲突与 email 冲突
	if existing, err := h.store.GetUserByID(ctx, userID); err != nil {
		h.internalError(w, "register.GetUserByID", err)
		return
	} else if existing != nil {
		h.render.Result(w, http.StatusOK, user, "Registration Failed",
			"User ID already exists. Please choose a different one.", "/register")
		return
	}
	if existing, err := h.store.GetUserByEmail(ctx, email); err != nil {
		h.internalError(w, "register.GetUserByEmail", err)
		return
	} else if existing != nil {
		h.render.Result(w, http.StatusOK, user, "Registration Failed",
			"Email already registered. Please use a different one.", "/register")
		return
	}

	if password != confirm {
		h.render.Result(w, http.StatusOK, user, "Registration Failed",
			"Passwords do not match.", "/register")
		return
	}

	if phone != "" && !model.ValidPhone(phone) {
		h.render.Result(w, http.StatusOK, user, "Registration Failed",
			"Phone number must be in format: 123-456-7890.", "/register")
		return
	}

	newRole := model.UserRoleContributor
	if role != "" && model.UserRole(role).Valid() {
		newRole = model.UserRole(role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		h.internalError(w, "register.HashPassword", err)
		return
	}

	now := time.Now()
	newUser := &model.User{
		UserID:       userID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Role:         newRole,
		Protected:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(ctx, newUser); err != nil {
		// 唯一索引兜底：并发注册撞到同一 userid/email
		h.render.Result(w, http.StatusOK, user, "Registration Failed",
			"User ID or email already exists. Please choose a different one.", "/register")
		return
	}

	if h.notifier != nil {
		h.notifier.Send(email, "Welcome to EDMS",
			fmt.Sprintf("Hi %s, your EDMS account %q has been created.", firstName, userID))
	}

	log.Printf("[auth] User registered: %s (%s)", userID, email)
	h.render.Result(w, http.StatusOK, user, "Registration Successful",
		"Your account has been created. You can now log in.", "/login")
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.FormValue("userid")
	password := r.FormValue("password")

	target, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		h.internalError(w, "login.GetUserByID", err)
		return
	}
	if target == nil {
		h.render.Result(w, http.StatusOK, nil, "Login Failed",
			"User not found. Please check your User ID or register.", "/login")
		return
	}
	if !CheckPassword(password, target.PasswordHash) {
		h.render.Result(w, http.StatusOK, nil, "Login Failed",
			"Incorrect password. Please try again.", "/login")
		return
	}

	public := target.Public()
	sessionID := session.NewID()
	if err := h.sessions.Set(ctx, sessionID, &public); err != nil {
		h.internalError(w, "login.SessionSet", err)
		return
	}

	var token string
	if h.cfg.JWTSecret != "" {
		token, err = GenerateToken(h.cfg, &public)
		if err != nil {
			h.internalError(w, "login.GenerateToken", err)
			return
		}
	}

	SetAuthCookies(w, h.cfg, sessionID, token)
	log.Printf("[auth] User logged in: %s", userID)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout 退出登录：销毁会话并清除 cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Destroy(r.Context(), c.Value); err != nil {
			log.Printf("[auth] session destroy failed: %v", err)
		}
	}
	ClearAuthCookies(w, h.cfg)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) internalError(w http.ResponseWriter, scope string, err error) {
	log.Printf("[auth.%s] error: %v", scope, err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
