package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"simplewebserver/internal/config"
	"simplewebserver/internal/contenttype"
)

// allowedMethods は Allow ヘッダーの値
const allowedMethods = "GET, HEAD"

// Dispatcher はリクエストごとにパス解決・ファイル配信・エラーページ送信を行う
type Dispatcher struct {
	paths  *PathResolver
	files  *FileResponder
	errors *ErrorPages
	logger *logrus.Logger
}

// NewDispatcher は新しいDispatcherを作成する
func NewDispatcher(cfg config.ServerConfig, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		paths:  NewPathResolver(cfg.Root),
		files:  NewFileResponder(cfg.SniffUnknown),
		errors: NewErrorPages(cfg.Root),
		logger: logger,
	}
}

// Handle は1リクエストを処理する。全パスを受ける NoRoute ハンドラとして登録する
func (d *Dispatcher) Handle(c *gin.Context) {
	req := c.Request
	entry := d.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"method":     req.Method,
	})

	var res Result
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		if EscapesRoot(req.URL.Path) {
			entry.Warnf("ルート外を指すパスをルート内に丸めました: %s", req.URL.Path)
		}
		target := d.paths.Resolve(req.URL.Path)
		res = d.files.Respond(c.Writer, req.Method, target)
	default:
		c.Header("Allow", allowedMethods)
		res = Result{Status: http.StatusMethodNotAllowed}
	}

	if res.Status != http.StatusOK {
		res.Written = d.writeError(c.Writer, req.Method, res.Status)
	}

	if res.Err != nil {
		entry = entry.WithError(res.Err)
	}
	entry.WithField("bytes", res.Written).Infof("%d : %s", res.Status, requestURL(req))
}

// writeError はエラーページをボディとして送る。HEAD ではボディを書かない
func (d *Dispatcher) writeError(w http.ResponseWriter, method string, code int) int64 {
	body := d.errors.Resolve(code)

	h := w.Header()
	if len(body) > 0 {
		h.Set("Content-Type", contenttype.Resolve(".html"))
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	writeHeader(w, code)

	if method == http.MethodHead || len(body) == 0 {
		return 0
	}
	n, _ := w.Write(body)
	return int64(n)
}

// requestURL はログ用にリクエストの絶対URLを組み立てる
func requestURL(req *http.Request) string {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + req.Host + req.URL.RequestURI()
}
