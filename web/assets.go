package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
)

const STATIC_PREFIX = "/static"

//go:embed assets
var assetsFS embed.FS

// assetFS serves the embedded assets; directories are never listed.
type assetFS struct {
	http.FileSystem
}

func (a assetFS) Exists(prefix, filepath string) bool {
	name := strings.TrimPrefix(filepath, prefix)
	if len(name) == len(filepath) || name == "" || name == "/" {
		return false
	}
	f, err := a.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	stat, err := f.Stat()
	return err == nil && !stat.IsDir()
}

func assets() static.ServeFileSystem {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return assetFS{FileSystem: http.FS(sub)}
}
