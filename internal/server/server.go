package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"simplewebserver/internal/config"
)

var (
	// ErrAlreadyStarted は Start を2回以上呼んだ場合のエラー
	ErrAlreadyStarted = errors.New("サーバーは既に起動しています")
	// ErrNotStarted は起動前に停止しようとした場合のエラー
	ErrNotStarted = errors.New("サーバーは起動していません")
)

// BindError はリッスンアドレスにバインドできなかったことを表す
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%s へのバインドに失敗: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	engine     *gin.Engine
	httpServer *http.Server
	logWriter  *io.PipeWriter

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
	done     chan struct{}
	err      error
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, logger *logrus.Logger) *Server {
	logWriter := logger.WriterLevel(logrus.ErrorLevel)

	engine := gin.New()
	engine.Use(requestID(), accessLog(logger), gin.RecoveryWithWriter(logWriter))
	engine.NoRoute(NewDispatcher(cfg.ServerConfig, logger).Handle)

	return &Server{
		config:    cfg,
		logger:    logger,
		engine:    engine,
		logWriter: logWriter,
		done:      make(chan struct{}),
		httpServer: &http.Server{
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout.Std(),
			WriteTimeout: cfg.WriteTimeout.Std(),
		},
	}
}

// Handler はリクエストを処理する http.Handler を返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start はリッスンを開始し、受け付けループを別ゴルーチンで動かす
//
// バインドに失敗した場合は *BindError を返す。呼び出し元はブロックされない。
// ctx がキャンセルされるとサーバーは即座に停止する。
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyStarted
	}

	addr := s.config.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}
	s.listener = ln

	go s.serve(ln)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("コンテキストがキャンセルされました")
			_ = s.Stop()
		case <-s.done:
		}
	}()

	s.logger.WithField("root", s.config.Root).Infof("HTTPサーバーを起動しました: http://%s/", ln.Addr())
	return nil
}

// serve は受け付けループ。各接続は net/http が個別のゴルーチンで処理する
func (s *Server) serve(ln net.Listener) {
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	} else if err != nil {
		s.logger.WithError(err).Error("受け付けループが異常終了しました")
	}

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

// Addr は実際にリッスンしているアドレスを返す。起動前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Done は受け付けループが終了すると閉じられるチャンネルを返す
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err は受け付けループが異常終了した場合のエラーを返す
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop はサーバーを即座に停止する
//
// 新しい接続は受け付けなくなり、処理中の接続は打ち切られる。
// 受け付けループの終了を待ってから戻る。
func (s *Server) Stop() error {
	if !s.markStopped() {
		return s.notRunningErr()
	}

	err := s.httpServer.Close()
	<-s.done
	s.finish()
	if err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	return nil
}

// Shutdown はサーバーをグレースフルにシャットダウンする
//
// ctx の期限までに処理中のリクエストが終わらなければ強制的に停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.markStopped() {
		return s.notRunningErr()
	}

	s.logger.Info("サーバーをシャットダウンしています...")
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		_ = s.httpServer.Close()
	}
	<-s.done
	s.finish()
	if err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}
	return nil
}

// markStopped は停止処理を始めてよければ true を返す
func (s *Server) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil || s.stopped {
		return false
	}
	s.stopped = true
	return true
}

func (s *Server) notRunningErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ErrNotStarted
	}
	return nil
}

func (s *Server) finish() {
	_ = s.logWriter.Close()
	s.logger.Info("HTTPサーバーを停止しました")
}
