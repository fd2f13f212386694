// Package view はサーバー描画ページのテンプレートを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
)

//go:embed templates/*.html templates/books/*.html
var templatesFS embed.FS

// ページ名
const (
	PageIndex    = "index"
	PageRegister = "register"
	PageLogin    = "login"
	PageProfile  = "profile"
	PageBookAdd  = "books/add"
	PageBookEdit = "books/edit"
)

var pages = []string{PageIndex, PageRegister, PageLogin, PageProfile, PageBookAdd, PageBookEdit}

// PageData はすべてのページに渡すデータ。
// AuthUser はログイン時点のスナップショット、Errors は表示するフラッシュメッセージ。
type PageData struct {
	AuthUser   *model.UserSnapshot
	Errors     []string
	Books      []model.BookWithOwner
	Book       *model.Book
	Profile    *model.User
	Categories []model.Category
}

// Renderer はページを描画するインターフェース。
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data PageData) error
}

// TemplateRenderer は埋め込みテンプレートでページを描画する。
type TemplateRenderer struct {
	templates map[string]*template.Template
}

var _ Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer は全ページのテンプレートを解析する。
func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"date": func(v interface{ Format(string) string }) string {
			return v.Format("2006-01-02")
		},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return &TemplateRenderer{templates: templates}, nil
}

// Render はページを描画する。描画に失敗した場合はレスポンスを書き込まずエラーを返す。
func (t *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data PageData) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return fmt.Errorf("unknown page: %s", name)
	}
	if data.Categories == nil {
		data.Categories = model.Categories()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
