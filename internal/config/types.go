package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Port はポート番号。数値と数値文字列 ("8080") の両方を受け付ける
type Port int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Port) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return p.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("無効なポート番号: %s", data)
	}
	*p = Port(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Port) UnmarshalYAML(value *yaml.Node) error {
	return p.UnmarshalText([]byte(value.Value))
}

// UnmarshalText implements encoding.TextUnmarshaler. TOMLの整数値もここを通る
func (p *Port) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("無効なポート番号: %q", text)
	}
	*p = Port(n)
	return nil
}

// Duration は設定ファイル用の time.Duration。"10s" 形式か秒数の整数を受け付ける
type Duration time.Duration

// Std は time.Duration を返す
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("無効な時間指定: %s", data)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("無効な時間指定: %q", s)
	}
	*d = Duration(v)
	return nil
}
