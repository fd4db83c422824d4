package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"simplewebserver/internal/app"
	"simplewebserver/internal/config"
	"simplewebserver/internal/logging"
	"simplewebserver/internal/server"
)

// configFile は実行ファイルと同じディレクトリに置く設定ファイル名
const configFile = "config.json"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("%v", err)
	}

	// 設定を読み込む
	cfg, err := config.Load(findConfig())
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗しました: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg, logger)

	// 標準入力に1行入力されたら停止する
	opts := app.Options{Stdin: os.Stdin, Console: os.Stdout}
	if err := app.Run(context.Background(), srv, opts, logger); err != nil {
		logger.Fatalf("サーバーの実行に失敗しました: %v", err)
	}
}

// findConfig は実行ファイルのディレクトリ、カレントディレクトリの順に設定ファイルを探す
func findConfig() string {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), configFile))
	}
	candidates = append(candidates, configFile)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
