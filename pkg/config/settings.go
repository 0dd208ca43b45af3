package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/storage"
)

// Settings はエディタの動作設定（YAML）
type Settings struct {
	AutoSave         bool           `yaml:"autoSave"`
	BackupLevels     bool           `yaml:"backupLevels"`
	ExportJSON       bool           `yaml:"exportJSON"`
	ExportXML        bool           `yaml:"exportXML"`
	ExportBinary     bool           `yaml:"exportBinary"`
	ExportYAML       bool           `yaml:"exportYAML"`
	RestrictToShapes bool           `yaml:"restrictToShapes"` // 図形外への配置を拒否する
	MaxCardTypes     int            `yaml:"maxCardTypes"`
	NewLevel         level.Defaults `yaml:"newLevel"`
}

// DefaultSettings は元のエディタと同じ初期設定を返す
func DefaultSettings() Settings {
	return Settings{
		AutoSave:     true,
		BackupLevels: true,
		ExportJSON:   true,
		MaxCardTypes: 8,
		NewLevel:     level.DefaultDefaults(),
	}
}

// LoadSettings はYAMLファイルから設定を読み込む
// path が空、またはファイルが存在しない場合は初期設定を返す
// ファイルに書かれていない項目は初期設定の値のまま
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

// Validate は設定値の範囲を確認する
func (s Settings) Validate() error {
	if s.MaxCardTypes <= 0 {
		return fmt.Errorf("maxCardTypes must be positive, got %d", s.MaxCardTypes)
	}
	d := s.NewLevel
	if d.CardSpacing <= 0 {
		return fmt.Errorf("newLevel.cardSpacing must be positive, got %g", d.CardSpacing)
	}
	if d.CardSize <= 0 {
		return fmt.Errorf("newLevel.cardSize must be positive, got %g", d.CardSize)
	}
	if d.TotalLayers <= 0 {
		return fmt.Errorf("newLevel.totalLayers must be positive, got %d", d.TotalLayers)
	}
	return nil
}

// ExportFormats は有効になっているエクスポート形式を返す
func (s Settings) ExportFormats() []storage.Format {
	var formats []storage.Format
	if s.ExportJSON {
		formats = append(formats, storage.FormatJSON)
	}
	if s.ExportXML {
		formats = append(formats, storage.FormatXML)
	}
	if s.ExportBinary {
		formats = append(formats, storage.FormatBinary)
	}
	if s.ExportYAML {
		formats = append(formats, storage.FormatYAML)
	}
	return formats
}
