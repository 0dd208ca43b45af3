package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/sheepedit/pkg/fileutil"
	"github.com/zurustar/sheepedit/pkg/level"
)

// Format はエクスポート形式
type Format string

const (
	FormatJSON   Format = "json"
	FormatXML    Format = "xml"
	FormatBinary Format = "bin"
	FormatYAML   Format = "yaml"
)

// AllFormats は対応しているすべてのエクスポート形式
var AllFormats = []Format{FormatJSON, FormatXML, FormatBinary, FormatYAML}

// ParseFormat は形式名を解析する
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "bin", "binary":
		return FormatBinary, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// Encode は指定形式でステージをエンコードする
func Encode(l *level.Level, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return EncodeJSON(l)
	case FormatXML:
		return EncodeXML(l)
	case FormatBinary:
		return EncodeBinary(l)
	case FormatYAML:
		return EncodeYAML(l)
	default:
		return nil, fmt.Errorf("unknown export format: %q", f)
	}
}

// Decode は指定形式のデータからステージを復元する
func Decode(data []byte, f Format) (*level.Level, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatXML:
		return DecodeXML(data)
	case FormatBinary:
		return DecodeBinary(data)
	case FormatYAML:
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unknown export format: %q", f)
	}
}

// EncodeYAML はステージをYAMLにする
func EncodeYAML(l *level.Level) ([]byte, error) {
	data, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode level %d as yaml: %w", l.ID, err)
	}
	return data, nil
}

// DecodeYAML はYAMLからステージを復元する
func DecodeYAML(data []byte) (*level.Level, error) {
	var l level.Level
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLevelUnreadable, err)
	}
	l.Normalize()
	return &l, nil
}

// ExportDir はエクスポート先ディレクトリを返す
func (s *Store) ExportDir() string {
	return filepath.Join(s.dir, exportDir)
}

// ExportPath はエクスポートファイルのパスを返す
func (s *Store) ExportPath(id int, f Format) string {
	return filepath.Join(s.ExportDir(), fmt.Sprintf("%s_export.%s", level.FileStem(id), f))
}

// Export はステージを指定された形式で Exports/ に書き出し、書き出したパスを返す
// 途中で失敗した場合は、それまでに書き出したパスとエラーを返す
func (s *Store) Export(l *level.Level, formats []Format) ([]string, error) {
	if len(formats) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(s.ExportDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for _, f := range formats {
		data, err := Encode(l, f)
		if err != nil {
			return paths, err
		}
		path := s.ExportPath(l.ID, f)
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to export level %d: %w", l.ID, err)
		}
		s.log.Info("Level exported", "levelId", l.ID, "format", string(f), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}
