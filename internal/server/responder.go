package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"simplewebserver/internal/contenttype"
)

// StatusReadFailure は存在するのに配信できなかったファイルに返すステータス
//
// 既存クライアントとの互換のため 418 のまま変えない。
const StatusReadFailure = http.StatusTeapot

// chunkSize はファイル転送時の読み込み単位
const chunkSize = 16 * 1024

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, chunkSize)
		return &b
	},
}

// Result は1リクエストの処理結果
type Result struct {
	Status  int   // 応答したステータスコード
	Written int64 // 書き込んだボディのバイト数
	Err     error // 配信中に起きたエラー
}

// FileResponder はファイルの内容をヘッダー付きでクライアントに送る
type FileResponder struct {
	sniff bool
	open  func(name string) (fs.File, error)
	now   func() time.Time
}

// NewFileResponder は新しいFileResponderを作成する
//
// sniff が true の場合、未知の拡張子はファイル先頭の内容からContent-Typeを判定する。
func NewFileResponder(sniff bool) *FileResponder {
	return &FileResponder{
		sniff: sniff,
		open: func(name string) (fs.File, error) {
			return os.Open(name)
		},
		now: time.Now,
	}
}

// Respond はファイルを配信し、結果のステータスを返す
//
// ファイルがなければ何も書かずに 404 を返す。開けない・読めない場合は
// ヘッダーを送る前に 418 を返す。エラーページの送信は呼び出し側が行う。
func (r *FileResponder) Respond(w http.ResponseWriter, method, name string) Result {
	if !isFile(name) {
		return Result{Status: http.StatusNotFound}
	}

	f, err := r.open(name)
	if err != nil {
		return Result{Status: StatusReadFailure, Err: fmt.Errorf("ファイルを開けません: %w", err)}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{Status: StatusReadFailure, Err: fmt.Errorf("ファイル情報を取得できません: %w", err)}
	}

	bufp := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufp)
	buf := *bufp

	contentType, known := contenttype.Lookup(filepath.Ext(name))
	if !known {
		contentType = contenttype.Default
	}
	sniff := r.sniff && !known

	// 最初のチャンクはヘッダー送信前に読む
	src := io.LimitReader(f, info.Size())
	var head []byte
	if method != http.MethodHead || sniff {
		n, err := io.ReadFull(src, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return Result{Status: StatusReadFailure, Err: fmt.Errorf("ファイルを読み込めません: %w", err)}
		}
		head = buf[:n]
	}
	if sniff && len(head) > 0 {
		contentType = contenttype.Sniff(head)
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Date", r.now().UTC().Format(http.TimeFormat))
	h.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	writeHeader(w, http.StatusOK)

	if method == http.MethodHead {
		return Result{Status: http.StatusOK}
	}

	res := Result{Status: http.StatusOK}
	if len(head) == 0 {
		return res
	}
	n, err := w.Write(head)
	res.Written += int64(n)
	if err != nil {
		res.Err = fmt.Errorf("レスポンスの書き込みに失敗: %w", err)
		return res
	}

	// ヘッダー送信後の失敗はステータスを変えられないので、接続ごと打ち切る
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			res.Written += int64(m)
			if werr != nil {
				res.Err = fmt.Errorf("レスポンスの書き込みに失敗: %w", werr)
				return res
			}
		}
		if rerr == io.EOF {
			return res
		}
		if rerr != nil {
			res.Err = fmt.Errorf("ファイルを読み込めません: %w", rerr)
			return res
		}
	}
}

// writeHeader はステータスを設定し、ボディがなくてもヘッダーを確定させる
func writeHeader(w http.ResponseWriter, code int) {
	w.WriteHeader(code)
	if hw, ok := w.(interface{ WriteHeaderNow() }); ok {
		hw.WriteHeaderNow()
	}
}
