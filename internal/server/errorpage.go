package server

import (
	"os"
	"path/filepath"
	"strconv"
)

// SharedErrorPage はルートの1つ上のディレクトリに置く共通エラーページ名
const SharedErrorPage = "error.html"

// ErrorPages はステータスコードに対応するエラーページを探す
type ErrorPages struct {
	root   string
	shared string
}

// NewErrorPages は新しいErrorPagesを作成する
//
// 共通エラーページは絶対パスにしたルートの親ディレクトリから探す。
func NewErrorPages(root string) *ErrorPages {
	parent := filepath.Join(root, "..")
	if abs, err := filepath.Abs(root); err == nil {
		parent = filepath.Dir(abs)
	}

	return &ErrorPages{
		root:   root,
		shared: filepath.Join(parent, SharedErrorPage),
	}
}

// Resolve はエラーページの内容を返す
//
// root/{code}.html、root/../error.html の順に探し、どちらもなければ空を返す。
// 読み込めないファイルは存在しないものとして扱う。
func (e *ErrorPages) Resolve(code int) []byte {
	candidates := []string{
		filepath.Join(e.root, strconv.Itoa(code)+".html"),
		e.shared,
	}

	for _, name := range candidates {
		if data, err := os.ReadFile(name); err == nil {
			return data
		}
	}
	return nil
}
