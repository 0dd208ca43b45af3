// Package catalog はステージの検証結果をSQLiteに索引付けする
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zurustar/sheepedit/pkg/catalog/migrations"
	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/validator"
)

// ErrNotFound はカタログにステージが登録されていない
var ErrNotFound = errors.New("catalog entry not found")

// Severity は問題の重要度
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueRecord は保存された1件の問題
type IssueRecord struct {
	Severity Severity
	Code     validator.IssueCode
	Message  string
}

// Entry はカタログの1行
type Entry struct {
	LevelID      int
	Name         string
	Path         string
	CardCount    int
	ShapeCount   int
	IsValid      bool
	ErrorCount   int
	WarningCount int
	IndexedAt    time.Time
	Issues       []IssueRecord
}

// EntryFromResult は検証結果からカタログの行を作成する
// 行のキーは id（ファイル名のID）で、ファイル内の levelId とは限らない
func EntryFromResult(id int, l *level.Level, path string, result *validator.ValidationResult, now time.Time) Entry {
	e := Entry{
		LevelID:      id,
		Name:         l.Name,
		Path:         path,
		CardCount:    l.CardCount(),
		ShapeCount:   l.ShapeCount(),
		IsValid:      result.IsValid,
		ErrorCount:   len(result.Errors),
		WarningCount: len(result.Warnings),
		IndexedAt:    now.UTC(),
	}
	for _, issue := range result.Errors {
		e.Issues = append(e.Issues, IssueRecord{Severity: SeverityError, Code: issue.Code, Message: issue.String()})
	}
	for _, issue := range result.Warnings {
		e.Issues = append(e.Issues, IssueRecord{Severity: SeverityWarning, Code: issue.Code, Message: issue.String()})
	}
	return e
}

// Store はSQLiteのカタログ
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open はカタログを開き、マイグレーションを適用する
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close はデータベースを閉じる
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Upsert はステージの行と問題一覧を置き換える
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.IndexedAt.IsZero() {
		e.IndexedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO levels (
		   level_id, name, path, card_count, shape_count,
		   is_valid, error_count, warning_count, indexed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(level_id) DO UPDATE SET
		   name = excluded.name,
		   path = excluded.path,
		   card_count = excluded.card_count,
		   shape_count = excluded.shape_count,
		   is_valid = excluded.is_valid,
		   error_count = excluded.error_count,
		   warning_count = excluded.warning_count,
		   indexed_at = excluded.indexed_at`,
		e.LevelID, e.Name, e.Path, e.CardCount, e.ShapeCount,
		e.IsValid, e.ErrorCount, e.WarningCount, toMillis(e.IndexedAt),
	); err != nil {
		return fmt.Errorf("upsert level %d: %w", e.LevelID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM level_issues WHERE level_id = ?`, e.LevelID); err != nil {
		return fmt.Errorf("clear issues for level %d: %w", e.LevelID, err)
	}
	for i, issue := range e.Issues {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO level_issues (level_id, seq, severity, code, message) VALUES (?, ?, ?, ?, ?)`,
			e.LevelID, i, string(issue.Severity), string(issue.Code), issue.Message,
		); err != nil {
			return fmt.Errorf("insert issue for level %d: %w", e.LevelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var indexedAt int64
	if err := row.Scan(
		&e.LevelID, &e.Name, &e.Path, &e.CardCount, &e.ShapeCount,
		&e.IsValid, &e.ErrorCount, &e.WarningCount, &indexedAt,
	); err != nil {
		return Entry{}, err
	}
	e.IndexedAt = fromMillis(indexedAt)
	return e, nil
}

const selectLevels = `SELECT level_id, name, path, card_count, shape_count,
        is_valid, error_count, warning_count, indexed_at
   FROM levels`

// Get はステージの行を問題一覧とともに返す
func (s *Store) Get(ctx context.Context, id int) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e, err := scanEntry(s.sqlDB.QueryRowContext(ctx, selectLevels+` WHERE level_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("level %d: %w", id, ErrNotFound)
		}
		return Entry{}, fmt.Errorf("get level %d: %w", id, err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT severity, code, message FROM level_issues WHERE level_id = ? ORDER BY seq`, id)
	if err != nil {
		return Entry{}, fmt.Errorf("get issues for level %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var issue IssueRecord
		var severity, code string
		if err := rows.Scan(&severity, &code, &issue.Message); err != nil {
			return Entry{}, fmt.Errorf("scan issue: %w", err)
		}
		issue.Severity = Severity(severity)
		issue.Code = validator.IssueCode(code)
		e.Issues = append(e.Issues, issue)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("iterate issues: %w", err)
	}
	return e, nil
}

// List はすべての行をステージID順に返す（問題一覧は含まない）
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, selectLevels+` ORDER BY level_id ASC`)
}

// FindByIssue は指定コードの問題を持つステージをID順に返す
func (s *Store) FindByIssue(ctx context.Context, code validator.IssueCode) ([]Entry, error) {
	return s.query(ctx, selectLevels+`
  WHERE level_id IN (SELECT level_id FROM level_issues WHERE code = ?)
  ORDER BY level_id ASC`, string(code))
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate levels: %w", err)
	}
	return entries, nil
}

// Delete はステージを削除する
func (s *Store) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM level_issues WHERE level_id = ?`, id); err != nil {
		return fmt.Errorf("delete issues for level %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM levels WHERE level_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete level %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("level %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
