// Package storage はステージのファイル保存・読み込み・エクスポートを行う
//
// ステージは levels ディレクトリに Level2D_<id>.json として保存される。
// エクスポートは同じディレクトリの Exports/ 以下に出力される。
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/zurustar/sheepedit/pkg/fileutil"
	"github.com/zurustar/sheepedit/pkg/level"
)

var (
	// ErrLevelNotFound はステージファイルが存在しない
	ErrLevelNotFound = errors.New("level not found")
	// ErrLevelUnreadable はステージファイルを解析できない
	ErrLevelUnreadable = errors.New("level unreadable")
)

const (
	filePrefix   = "Level2D_"
	fileExt      = ".json"
	backupSuffix = "_backup"
	exportDir    = "Exports"
)

// SaveOptions は保存時のオプション
type SaveOptions struct {
	// Backup が true の場合、既存ファイルを Level2D_<id>_backup.json にコピーしてから上書きする
	Backup bool
}

// Store はディレクトリ上のステージファイルを管理する
type Store struct {
	dir string
	log *slog.Logger
}

// New は Store を作成する
func New(dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, log: log}
}

// Dir はステージディレクトリを返す
func (s *Store) Dir() string {
	return s.dir
}

// Path はステージIDに対応するファイルパスを返す
func (s *Store) Path(id int) string {
	return filepath.Join(s.dir, FileName(id))
}

// BackupPath はバックアップファイルのパスを返す
func (s *Store) BackupPath(id int) string {
	return filepath.Join(s.dir, level.FileStem(id)+backupSuffix+fileExt)
}

// FileName はステージIDに対応するファイル名を返す
func FileName(id int) string {
	return level.FileStem(id) + fileExt
}

// ParseFileName はファイル名からステージIDを取り出す
// Level2D_<整数>.json 以外（バックアップやエクスポートを含む）は false を返す
func ParseFileName(name string) (int, bool) {
	if len(name) <= len(filePrefix)+len(fileExt) {
		return 0, false
	}
	if !strings.EqualFold(name[:len(filePrefix)], filePrefix) || !strings.EqualFold(name[len(name)-len(fileExt):], fileExt) {
		return 0, false
	}
	digits := name[len(filePrefix) : len(name)-len(fileExt)]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IDs はディレクトリ内のステージIDを昇順で返す
// ディレクトリが存在しない場合は空を返す
func (s *Store) IDs() ([]int, error) {
	return ListIDs(fileutil.NewRealFS(s.dir))
}

// ListIDs は FileSystem 内のステージIDを昇順で返す
func ListIDs(fsys fileutil.FileSystem) ([]int, error) {
	names, err := fsys.Glob(filePrefix + "*" + fileExt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	var ids []int
	for _, name := range names {
		if id, ok := ParseFileName(name); ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// NextLevelID は既存のステージIDの最大値 + 1 を返す
// ステージが1つもない場合は 1 を返す
func (s *Store) NextLevelID() (int, error) {
	ids, err := s.IDs()
	if err != nil {
		return 0, err
	}
	maxID := 0
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

// Save はステージをJSONで保存する
func (s *Store) Save(l *level.Level, opts SaveOptions) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create level directory: %w", err)
	}

	path := s.Path(l.ID)
	if opts.Backup {
		if _, err := os.Stat(path); err == nil {
			if err := fileutil.CopyFile(path, s.BackupPath(l.ID)); err != nil {
				return "", fmt.Errorf("failed to back up level %d: %w", l.ID, err)
			}
			s.log.Debug("Level backed up", "levelId", l.ID, "path", s.BackupPath(l.ID))
		}
	}

	data, err := EncodeJSON(l)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save level %d: %w", l.ID, err)
	}

	s.log.Info("Level saved", "levelId", l.ID, "path", path, "cards", l.CardCount(), "shapes", l.ShapeCount())
	return path, nil
}

// Load はステージIDのファイルを読み込む
func (s *Store) Load(id int) (*level.Level, error) {
	l, err := LoadFS(fileutil.NewRealFS(s.dir), FileName(id))
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", id, err)
	}
	s.log.Debug("Level loaded", "levelId", id, "cards", l.CardCount())
	return l, nil
}

// LoadOrNew はステージを読み込む
// 読み込みに失敗した場合は次の空きIDで新しいステージを作成する（保存はしない）
func (s *Store) LoadOrNew(id int, defaults level.Defaults) (*level.Level, error) {
	l, err := s.Load(id)
	if err == nil {
		return l, nil
	}
	s.log.Warn("Failed to load level, creating a new one", "levelId", id, "error", err)

	next, nerr := s.NextLevelID()
	if nerr != nil {
		return nil, nerr
	}
	return level.New(next, defaults), nil
}

// LoadFile は任意のパスのステージファイルを読み込む
func LoadFile(path string) (*level.Level, error) {
	return LoadFS(fileutil.NewRealFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadFS は FileSystem からステージを読み込む
func LoadFS(fsys fileutil.FileSystem, name string) (*level.Level, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return DecodeJSON(data)
}

// EncodeJSON はステージをインデント付きJSONにする
func EncodeJSON(l *level.Level) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode level %d: %w", l.ID, err)
	}
	return data, nil
}

// DecodeJSON はJSONからステージを復元する
func DecodeJSON(data []byte) (*level.Level, error) {
	var l level.Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLevelUnreadable, err)
	}
	l.Normalize()
	return &l, nil
}
