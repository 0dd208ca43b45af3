// Package config は環境変数とエディタ設定ファイルを読み込む
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env は環境変数から読み込む設定
// コマンドラインフラグが指定された場合はフラグが優先される
type Env struct {
	LevelsDir     string        `env:"SHEEPEDIT_LEVELS_DIR" envDefault:"Assets/Levels2D"`
	LogLevel      string        `env:"SHEEPEDIT_LOG_LEVEL" envDefault:"info"`
	CatalogPath   string        `env:"SHEEPEDIT_CATALOG"`
	Locale        string        `env:"SHEEPEDIT_LOCALE" envDefault:"en"`
	SettingsPath  string        `env:"SHEEPEDIT_SETTINGS"`
	WatchDebounce time.Duration `env:"SHEEPEDIT_WATCH_DEBOUNCE" envDefault:"100ms"`
}

// ParseEnv は環境変数を target に読み込む
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv は Env を環境変数から読み込む
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
