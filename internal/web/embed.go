package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates static
var assets embed.FS

// Layout is the default layout wrapping every page
const Layout = "layouts/main"

// NewEngine returns the html view engine backed by the embedded templates
func NewEngine() *html.Engine {
	return html.NewFileSystem(sub("templates"), ".html")
}

// Static returns the embedded static assets (css, js)
func Static() http.FileSystem {
	return sub("static")
}

func sub(dir string) http.FileSystem {
	fsys, err := fs.Sub(assets, dir)
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}
