// Package contenttype はファイル拡張子からContent-Typeを解決する
//
// 拡張子の比較は大文字小文字を区別せず、先頭のドットを含む (".html")。
// 未知の拡張子は application/octet-stream になる。
package contenttype

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Default は未知の拡張子に対するContent-Type
const Default = "application/octet-stream"

// table は拡張子 (小文字) → Content-Type の対応表。初期化後は変更しない
var table = map[string]string{
	".asf":     "video/x-ms-asf",
	".asx":     "video/x-ms-asf",
	".avi":     "video/x-msvideo",
	".bin":     "application/octet-stream",
	".cco":     "application/x-cocoa",
	".crt":     "application/x-x509-ca-cert",
	".css":     "text/css",
	".deb":     "application/octet-stream",
	".der":     "application/x-x509-ca-cert",
	".dll":     "application/octet-stream",
	".dmg":     "application/octet-stream",
	".ear":     "application/java-archive",
	".eot":     "application/octet-stream",
	".exe":     "application/octet-stream",
	".flv":     "video/x-flv",
	".gif":     "image/gif",
	".hqx":     "application/mac-binhex40",
	".htc":     "text/x-component",
	".htm":     "text/html",
	".html":    "text/html",
	".ico":     "image/x-icon",
	".img":     "application/octet-stream",
	".iso":     "application/octet-stream",
	".jar":     "application/java-archive",
	".jardiff": "application/x-java-archive-diff",
	".jng":     "image/x-jng",
	".jnlp":    "application/x-java-jnlp-file",
	".jpeg":    "image/jpeg",
	".jpg":     "image/jpeg",
	".js":      "application/x-javascript",
	".mml":     "text/mathml",
	".mng":     "video/x-mng",
	".mov":     "video/quicktime",
	".mp3":     "audio/mpeg",
	".mpeg":    "video/mpeg",
	".mpg":     "video/mpeg",
	".msi":     "application/octet-stream",
	".msm":     "application/octet-stream",
	".msp":     "application/octet-stream",
	".oga":     "audio/ogg",
	".ogg":     "audio/ogg",
	".ogv":     "video/ogg",
	".opus":    "audio/ogg",
	".pdb":     "application/x-pilot",
	".pdf":     "application/pdf",
	".pem":     "application/x-x509-ca-cert",
	".pl":      "application/x-perl",
	".pm":      "application/x-perl",
	".png":     "image/png",
	".prc":     "application/x-pilot",
	".ra":      "audio/x-realaudio",
	".rar":     "application/x-rar-compressed",
	".rpm":     "application/x-redhat-package-manager",
	".rss":     "text/xml",
	".run":     "application/x-makeself",
	".sea":     "application/x-sea",
	".shtml":   "text/html",
	".sit":     "application/x-stuffit",
	".swf":     "application/x-shockwave-flash",
	".tcl":     "application/x-tcl",
	".tk":      "application/x-tcl",
	".txt":     "text/plain",
	".war":     "application/java-archive",
	".wbmp":    "image/vnd.wap.wbmp",
	".wmv":     "video/x-ms-wmv",
	".xml":     "text/xml",
	".xpi":     "application/x-xpinstall",
	".xsl":     "text/xsl",
	".zip":     "application/zip",
}

// Lookup は拡張子に対応するContent-Typeを返す。未登録なら ok は false
func Lookup(ext string) (contentType string, ok bool) {
	contentType, ok = table[strings.ToLower(ext)]
	return contentType, ok
}

// Resolve は拡張子に対応するContent-Typeを返す。未登録なら Default
func Resolve(ext string) string {
	if contentType, ok := Lookup(ext); ok {
		return contentType
	}
	return Default
}

// Sniff はファイル先頭のバイト列からContent-Typeを推定する
func Sniff(head []byte) string {
	return mimetype.Detect(head).String()
}
