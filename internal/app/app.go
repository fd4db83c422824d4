// Package app はサーバーの起動と停止のきっかけ (標準入力・シグナル・コンテキスト) をまとめる
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// DefaultShutdownTimeout はシグナル受信時のグレースフルシャットダウンの猶予
const DefaultShutdownTimeout = 5 * time.Second

// Lifecycle は Run が操作するサーバー
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
	Shutdown(ctx context.Context) error
	Addr() net.Addr
	Done() <-chan struct{}
	Err() error
}

// Options は Run の動作設定
type Options struct {
	// Stdin から1行 (空行・EOFを含む) 読むとサーバーを即時停止する。nil なら無効
	Stdin io.Reader
	// Console は起動メッセージの出力先。nil なら出力しない
	Console io.Writer
	// ShutdownTimeout はシグナル受信時の猶予。0 なら DefaultShutdownTimeout
	ShutdownTimeout time.Duration
}

// Run はサーバーを起動し、停止のきっかけを待つ
//
// バインドに失敗した場合はそのエラーを返す。
func Run(ctx context.Context, srv Lifecycle, opts Options, logger *logrus.Logger) error {
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	}

	timeout := opts.ShutdownTimeout
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}

	var lineCh <-chan struct{}
	if opts.Stdin != nil {
		lineCh = waitLine(opts.Stdin)
	}
	printBanner(opts.Console, srv.Addr(), opts.Stdin != nil)

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var err error
	select {
	case <-lineCh:
		logger.Info("標準入力を受け取りました")
		err = srv.Stop()
	case sig := <-sigCh:
		logger.Infof("シグナルを受信しました: %v", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		err = srv.Shutdown(shutdownCtx)
		cancel()
	case <-ctx.Done():
		err = srv.Stop()
	case <-srv.Done():
		return srv.Err()
	}

	if opts.Console != nil {
		fmt.Fprintln(opts.Console, "SimpleWebServer stopped")
	}
	return err
}

// waitLine は1行読み終えるか入力が終わると閉じられるチャンネルを返す
func waitLine(r io.Reader) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(r).ReadString('\n')
		close(ch)
	}()
	return ch
}

func printBanner(out io.Writer, addr net.Addr, console bool) {
	if out == nil {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(out, "SimpleWebServer running on http://%s/\n", addr)
	if console {
		color.New(color.FgYellow).Fprintln(out, "Press Enter or Ctrl+C to stop it.")
	} else {
		color.New(color.FgYellow).Fprintln(out, "Press Ctrl+C to stop it.")
	}
}
