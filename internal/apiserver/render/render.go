// Package render 内嵌 HTML 模板渲染
package render

import (
	"bytes"
	"html/template"
	"log"
	"net/http"

	"edms/web"
)

// Renderer 页面渲染器，启动时解析全部内嵌模板
type Renderer struct {
	tmpl *template.Template
}

// New 创建渲染器
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render 渲染指定页面模板
//
// 先渲染到缓冲区：模板出错时还没写响应头，可以干净地返回 500。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, page, data); err != nil {
		log.Printf("[render] template %s: %v", page, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// ResultData 通用结果页数据
type ResultData struct {
	User    any
	Title   string
	Message string
	BackURL string
}

// Result 渲染通用结果页（注册/上传等操作的提示页）
func (r *Renderer) Result(w http.ResponseWriter, status int, user any, title, message, backURL string) {
	r.Render(w, status, "result", ResultData{
		User:    user,
		Title:   title,
		Message: message,
		BackURL: backURL,
	})
}
