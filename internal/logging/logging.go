// Package logging はアプリケーション共通のロガーを生成する
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"simplewebserver/internal/config"
)

// New は設定に従ってロガーを作成する。出力先は標準出力
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter は出力先を指定してロガーを作成する
func NewWithWriter(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("無効なログレベル: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("無効なログ形式: %q", cfg.Format)
	}

	return logger, nil
}
