package server

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"testing/iotest"
	"time"
)

// fakeFile は読み込み途中で失敗するファイル
type fakeFile struct {
	info fs.FileInfo
	r    io.Reader
}

func (f *fakeFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *fakeFile) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *fakeFile) Close() error               { return nil }

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(1)).Read(b)
	return b
}

func TestFileResponder_Get(t *testing.T) {
	sizes := []int{0, 11, chunkSize, chunkSize + 1, 3*chunkSize + 123}

	for _, size := range sizes {
		t.Run(strconv.Itoa(size), func(t *testing.T) {
			root := t.TempDir()
			name := filepath.Join(root, "data.bin")
			content := randomBytes(size)
			writeFile(t, name, content)

			rec := httptest.NewRecorder()
			res := NewFileResponder(false).Respond(rec, http.MethodGet, name)

			if res.Status != http.StatusOK || res.Err != nil {
				t.Fatalf("Respond() = %+v", res)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if res.Written != int64(size) {
				t.Errorf("Written = %d, want %d", res.Written, size)
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(size) {
				t.Errorf("Content-Length = %q, want %d", got, size)
			}
			if !bytes.Equal(rec.Body.Bytes(), content) {
				t.Errorf("body mismatch: got %d bytes, want %d", rec.Body.Len(), size)
			}
		})
	}
}

func TestFileResponder_Headers(t *testing.T) {
	root := t.TempDir()
	name := filepath.Join(root, "Photo.JPG")
	writeFile(t, name, []byte("jpegdata"))

	modTime := time.Date(2018, 1, 30, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(name, modTime, modTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	r := NewFileResponder(false)
	r.now = func() time.Time {
		return time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	}

	rec := httptest.NewRecorder()
	r.Respond(rec, http.MethodGet, name)

	want := map[string]string{
		"Content-Type":   "image/jpeg",
		"Content-Length": "8",
		"Date":           "Wed, 01 May 2024 00:30:00 GMT",
		"Last-Modified":  "Tue, 30 Jan 2018 12:00:00 GMT",
	}
	for key, value := range want {
		if got := rec.Header().Get(key); got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}
}

func TestFileResponder_Head(t *testing.T) {
	root := t.TempDir()
	name := filepath.Join(root, "style.css")
	writeFile(t, name, []byte("body { color: red; }"))

	r := NewFileResponder(false)
	fixed := time.Now()
	r.now = func() time.Time { return fixed }

	get := httptest.NewRecorder()
	r.Respond(get, http.MethodGet, name)

	head := httptest.NewRecorder()
	res := r.Respond(head, http.MethodHead, name)

	if res.Status != http.StatusOK || res.Written != 0 {
		t.Fatalf("Respond(HEAD) = %+v", res)
	}
	if head.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", head.Body.String())
	}
	for _, key := range []string{"Content-Type", "Content-Length", "Date", "Last-Modified"} {
		if head.Header().Get(key) != get.Header().Get(key) {
			t.Errorf("%s: HEAD %q, GET %q", key, head.Header().Get(key), get.Header().Get(key))
		}
	}
	if got := head.Header().Get("Content-Type"); got != "text/css" {
		t.Errorf("Content-Type = %q, want text/css", got)
	}
}

func TestFileResponder_NotFound(t *testing.T) {
	root := t.TempDir()
	r := NewFileResponder(false)

	for _, name := range []string{filepath.Join(root, "missing.txt"), root} {
		rec := httptest.NewRecorder()
		res := r.Respond(rec, http.MethodGet, name)
		if res.Status != http.StatusNotFound {
			t.Errorf("Respond(%q).Status = %d, want 404", name, res.Status)
		}
		if len(rec.Header()) != 0 || rec.Body.Len() != 0 {
			t.Errorf("Respond(%q) wrote headers or body", name)
		}
	}
}

func TestFileResponder_ReadFailure(t *testing.T) {
	root := t.TempDir()
	name := filepath.Join(root, "page.html")
	writeFile(t, name, bytes.Repeat([]byte("x"), 2*chunkSize))
	info, err := os.Stat(name)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	errIO := errors.New("i/o fault")

	tests := []struct {
		name string
		open func(string) (fs.File, error)
	}{
		{
			name: "開けない",
			open: func(string) (fs.File, error) { return nil, fs.ErrPermission },
		},
		{
			name: "最初の読み込みで失敗",
			open: func(string) (fs.File, error) {
				return &fakeFile{info: info, r: iotest.ErrReader(errIO)}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFileResponder(false)
			r.open = tt.open

			rec := httptest.NewRecorder()
			res := r.Respond(rec, http.MethodGet, name)
			if res.Status != StatusReadFailure {
				t.Errorf("Status = %d, want %d", res.Status, StatusReadFailure)
			}
			if res.Err == nil {
				t.Error("Err = nil, want error")
			}
			if rec.Header().Get("Content-Type") != "" || rec.Body.Len() != 0 {
				t.Error("失敗時にヘッダーかボディが書き込まれました")
			}
		})
	}
}

func TestFileResponder_FailureAfterHeaders(t *testing.T) {
	root := t.TempDir()
	name := filepath.Join(root, "big.bin")
	content := randomBytes(2 * chunkSize)
	writeFile(t, name, content)
	info, err := os.Stat(name)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	r := NewFileResponder(false)
	r.open = func(string) (fs.File, error) {
		return &fakeFile{
			info: info,
			r:    io.MultiReader(bytes.NewReader(content[:chunkSize]), iotest.ErrReader(errors.New("disk gone"))),
		}, nil
	}

	rec := httptest.NewRecorder()
	res := r.Respond(rec, http.MethodGet, name)

	// ヘッダー送信後はステータスを変えられない
	if res.Status != http.StatusOK || rec.Code != http.StatusOK {
		t.Errorf("Status = %d / %d, want 200", res.Status, rec.Code)
	}
	if res.Err == nil {
		t.Error("Err = nil, want error")
	}
	if res.Written != chunkSize {
		t.Errorf("Written = %d, want %d", res.Written, chunkSize)
	}
}

func TestFileResponder_Sniff(t *testing.T) {
	root := t.TempDir()
	name := filepath.Join(root, "image.unknownext")
	writeFile(t, name, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

	tests := []struct {
		sniff  bool
		method string
		want   string
	}{
		{false, http.MethodGet, "application/octet-stream"},
		{true, http.MethodGet, "image/png"},
		{true, http.MethodHead, "image/png"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		NewFileResponder(tt.sniff).Respond(rec, tt.method, name)
		if got := rec.Header().Get("Content-Type"); got != tt.want {
			t.Errorf("sniff=%v %s: Content-Type = %q, want %q", tt.sniff, tt.method, got, tt.want)
		}
	}

	// 拡張子が既知なら中身を見ない
	css := filepath.Join(root, "fake.css")
	writeFile(t, css, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	rec := httptest.NewRecorder()
	NewFileResponder(true).Respond(rec, http.MethodGet, css)
	if got := rec.Header().Get("Content-Type"); got != "text/css" {
		t.Errorf("Content-Type = %q, want text/css", got)
	}
}
