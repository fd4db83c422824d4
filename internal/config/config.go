package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する構造体
//
// キーはフラットで、従来の config.json ({"www": ..., "host": ..., "port": ...}) と互換
type Config struct {
	ServerConfig `yaml:",inline"`

	Log LogConfig `json:"log" yaml:"log" toml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Root string `json:"www" yaml:"www" toml:"www" validate:"required"` // 配信するルートディレクトリ
	Host string `json:"host" yaml:"host" toml:"host"`                   // リッスンするホスト
	Port Port   `json:"port" yaml:"port" toml:"port" validate:"min=0,max=65535"`

	// タイムアウト設定
	ReadTimeout  Duration `json:"read_timeout" yaml:"read_timeout" toml:"read_timeout" validate:"min=0"`    // 読み込みタイムアウト
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout" toml:"write_timeout" validate:"min=0"` // 書き込みタイムアウト

	// 拡張子から判定できないファイルの中身を判定するか
	SniffUnknown bool `json:"sniff_unknown" yaml:"sniff_unknown" toml:"sniff_unknown"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `json:"format" yaml:"format" toml:"format" validate:"omitempty,oneof=text json"`
}

// デフォルト値
const (
	DefaultRoot        = "www"
	DefaultHost        = "localhost"
	DefaultPort        = 8080
	DefaultReadTimeout = 10 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

var validate = validator.New()

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Root:         DefaultRoot,
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  Duration(DefaultReadTimeout),
			WriteTimeout: 0, // 大きなファイルの配信用にタイムアウト無効化
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load は設定を読み込む
//
// path が空の場合はデフォルト値に環境変数を適用する。
// 相対パスの www は設定ファイルのディレクトリを基準に解決する。
func Load(path string) (*Config, error) {
	cfg := Default()
	base := "."

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		base = filepath.Dir(path)
	}

	cfg.applyEnv()

	if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(base, cfg.Root)
	}
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}
	cfg.Host = NormalizeHost(cfg.Host)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv は .env ファイルを環境変数に読み込む。ファイルがなければ何もしない
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf(".envの読み込みに失敗: %w", err)
	}
	return nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("無効な設定値 %s: %v (%s)", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return err
	}
	return nil
}

// Address はサーバーのリッスンアドレスを返す
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// RootExists はルートディレクトリが存在するか確認する
func (c *Config) RootExists() bool {
	info, err := os.Stat(c.Root)
	return err == nil && info.IsDir()
}

// NormalizeHost はURLプレフィックス形式 (http://localhost/) のホストを素のホスト名にする
//
// "+" と "*" は全インターフェースを意味し、空文字列になる。
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			// url.Parse は "+" や "*" をホストとして受け付ける
			host = u.Host
		}
	}
	host = strings.TrimSuffix(host, "/")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	switch host {
	case "+", "*":
		return ""
	}
	return host
}

// applyEnv は環境変数で設定を上書きする
func (c *Config) applyEnv() {
	c.Root = getEnvOrDefault("SERVER_ROOT", c.Root)
	c.Host = getEnvOrDefault("SERVER_HOST", c.Host)
	c.Port = Port(getEnvAsIntOrDefault("PORT", int(c.Port)))
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}
