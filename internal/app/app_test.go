package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"simplewebserver/internal/config"
	"simplewebserver/internal/server"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newServer(t *testing.T) *server.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	return server.New(cfg, newLogger())
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func runAsync(ctx context.Context, srv *server.Server, opts Options) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, srv, opts, newLogger())
	}()
	return errCh
}

func wait(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Run が終了しませんでした")
		return nil
	}
}

func TestRun_StopOnLine(t *testing.T) {
	inputs := []string{"\n", "quit\n", ""}

	for _, input := range inputs {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			srv := newServer(t)
			var console bytes.Buffer

			err := wait(t, runAsync(context.Background(), srv, Options{
				Stdin:   strings.NewReader(input),
				Console: &console,
			}))
			if err != nil {
				t.Fatalf("Run() = %v", err)
			}

			select {
			case <-srv.Done():
			default:
				t.Error("サーバーが停止していません")
			}
			if !strings.Contains(console.String(), "SimpleWebServer running on http://127.0.0.1:") {
				t.Errorf("起動メッセージがありません: %q", console.String())
			}
		})
	}
}

func TestRun_StopOnContext(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	defer pw.Close()

	errCh := runAsync(ctx, srv, Options{Stdin: pr})
	time.Sleep(100 * time.Millisecond)
	cancel()

	if err := wait(t, errCh); err != nil {
		t.Fatalf("Run() = %v", err)
	}
}

func TestRun_WithoutConsole(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := runAsync(ctx, srv, Options{})
	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-errCh:
		t.Fatalf("標準入力なしで Run が終了しました: %v", err)
	default:
	}

	cancel()
	if err := wait(t, errCh); err != nil {
		t.Fatalf("Run() = %v", err)
	}
}

func TestRun_BindFailure(t *testing.T) {
	first := newServer(t)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Host = "127.0.0.1"
	cfg.Port = config.Port(first.Addr().(*net.TCPAddr).Port)
	srv := server.New(cfg, newLogger())

	err := Run(context.Background(), srv, Options{}, newLogger())
	var bindErr *server.BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Run() = %v, want *server.BindError", err)
	}
}
