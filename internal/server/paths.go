package server

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IndexFiles はディレクトリ (空パス) へのリクエスト時に順に試すファイル名
//
// 先に存在したものが優先される。
var IndexFiles = []string{
	"index.html",
	"index.htm",
	"index.xml",
	"default.html",
	"default.htm",
	"default.xml",
}

// PathResolver はリクエストパスをルート以下のファイルパスに変換する
type PathResolver struct {
	root string
}

// NewPathResolver は新しいPathResolverを作成する
func NewPathResolver(root string) *PathResolver {
	return &PathResolver{root: filepath.Clean(root)}
}

// Root はルートディレクトリを返す
func (p *PathResolver) Root() string {
	return p.root
}

// Resolve はURLパスをファイルシステム上のパスに変換する
//
// 先頭の "/" を1つだけ取り除き、空ならインデックスファイルを探す。
// ".." はルートの外に出ないよう丸められる。ファイルの存在確認はしない。
func (p *PathResolver) Resolve(urlPath string) string {
	rel := strings.TrimPrefix(urlPath, "/")

	if rel == "" {
		for _, name := range IndexFiles {
			if isFile(filepath.Join(p.root, name)) {
				rel = name
				break
			}
		}
	}

	return filepath.Join(p.root, filepath.FromSlash(path.Clean("/"+rel)))
}

// EscapesRoot はURLパスが ".." でルートの外を指そうとしているか判定する
func EscapesRoot(urlPath string) bool {
	rel := path.Clean(strings.TrimPrefix(urlPath, "/"))
	return rel == ".." || strings.HasPrefix(rel, "../")
}

// isFile はパスが通常ファイル (ディレクトリ以外) として存在するか確認する
func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
