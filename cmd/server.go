// Package main はSimpleWebServerコマンドの実装です
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"simplewebserver/internal/app"
	"simplewebserver/internal/config"
	"simplewebserver/internal/logging"
	"simplewebserver/internal/server"
)

type serveCommand struct {
	configPath string
	envFile    string
	root       string
	host       string
	port       int
	logLevel   string
	sniff      bool
	noConsole  bool
}

func newRootCommand() *cobra.Command {
	c := &serveCommand{}

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "ディレクトリ以下の静的ファイルを配信するHTTPサーバー",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.run,
	}

	// コマンドラインオプション
	flags := cmd.Flags()
	flags.StringVarP(&c.configPath, "config", "c", "", "設定ファイル (.json / .yaml / .toml)")
	flags.StringVar(&c.envFile, "env-file", ".env", "読み込む .env ファイル")
	flags.StringVar(&c.root, "root", "", "配信するルートディレクトリ")
	flags.StringVar(&c.host, "host", "", "サーバーのホスト (例: localhost, http://+)")
	flags.IntVarP(&c.port, "port", "p", 0, "サーバーのポート (0 は空きポート)")
	flags.StringVar(&c.logLevel, "log-level", "", "ログレベル (trace, debug, info, warn, error)")
	flags.BoolVar(&c.sniff, "sniff", false, "未知の拡張子は内容からContent-Typeを判定する")
	flags.BoolVar(&c.noConsole, "no-console", false, "標準入力による停止を無効にする")

	return cmd
}

func (c *serveCommand) run(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}

	// 設定を読み込む
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	// コマンドラインオプションで設定を上書き
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = c.root
	}
	if flags.Changed("host") {
		cfg.Host = config.NormalizeHost(c.host)
	}
	if flags.Changed("port") {
		cfg.Port = config.Port(c.port)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("sniff") {
		cfg.SniffUnknown = c.sniff
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定の検証に失敗: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	if !cfg.RootExists() {
		logger.Warnf("ルートディレクトリが存在しません: %s", cfg.Root)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg, logger)

	opts := app.Options{Console: cmd.OutOrStdout()}
	if !c.noConsole {
		opts.Stdin = cmd.InOrStdin()
	}

	logger.Infof("SimpleWebServer を起動します: %s", cfg.Address())
	return app.Run(cmd.Context(), srv, opts, logger)
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(1)
	}
}
