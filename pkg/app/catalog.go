package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zurustar/sheepedit/pkg/catalog"
	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/storage"
	"github.com/zurustar/sheepedit/pkg/validator"
	"github.com/zurustar/sheepedit/pkg/watch"
)

// withCatalog はカタログを開いて fn を実行する
func (app *Application) withCatalog(fn func(*catalog.Store) error) error {
	cat, err := catalog.Open(app.config.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		if err := cat.Close(); err != nil {
			app.log.Warn("Failed to close catalog", "error", err)
		}
	}()
	return fn(cat)
}

// catalogKey はカタログのキーにするIDを返す
// ファイル名が Level2D_<id>.json ならその id、そうでなければファイル内の levelId
func (app *Application) catalogKey(path string, l *level.Level) int {
	id, ok := storage.ParseFileName(filepath.Base(path))
	if !ok {
		return l.ID
	}
	if id != l.ID {
		app.log.Warn("Level id does not match file name", "path", path, "fileId", id, "levelId", l.ID)
	}
	return id
}

// indexSummary は index の集計
type indexSummary struct {
	Indexed    int
	Invalid    int
	Unreadable int
	Removed    int
}

func (app *Application) runIndex() error {
	if app.config.CatalogPath == "" {
		return errors.New("index requires --catalog or SHEEPEDIT_CATALOG")
	}

	var summary indexSummary
	err := app.withCatalog(func(cat *catalog.Store) error {
		var err error
		summary, err = app.indexAll(app.ctx, cat)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Indexed %d levels (%d invalid, %d unreadable, %d removed)\n",
		summary.Indexed, summary.Invalid, summary.Unreadable, summary.Removed)
	return nil
}

// indexAll はディレクトリ内のすべてのステージを検証してカタログを更新する
// ファイルがなくなったステージはカタログから削除する
func (app *Application) indexAll(ctx context.Context, cat *catalog.Store) (indexSummary, error) {
	var summary indexSummary

	ids, err := app.store.IDs()
	if err != nil {
		return summary, err
	}

	present := make(map[int]bool, len(ids))
	for _, id := range ids {
		present[id] = true

		l, err := app.store.Load(id)
		if err != nil {
			// 壊れたファイルが1つあっても残りは登録する
			app.log.Warn("Skipping unreadable level", "levelId", id, "error", err)
			summary.Unreadable++
			continue
		}
		path := app.store.Path(id)
		result := validator.Validate(l)
		if err := cat.Upsert(ctx, catalog.EntryFromResult(app.catalogKey(path, l), l, path, result, app.now())); err != nil {
			return summary, err
		}
		summary.Indexed++
		if !result.IsValid {
			summary.Invalid++
		}
	}

	entries, err := cat.List(ctx)
	if err != nil {
		return summary, err
	}
	for _, e := range entries {
		if present[e.LevelID] {
			continue
		}
		if err := cat.Delete(ctx, e.LevelID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return summary, err
		}
		summary.Removed++
	}

	app.log.Info("Catalog updated", "indexed", summary.Indexed, "invalid", summary.Invalid, "removed", summary.Removed)
	return summary, nil
}

func (app *Application) runWatch() error {
	ctx, stop := signal.NotifyContext(app.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(app.store.Dir(), app.config.Env.WatchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", app.store.Dir(), err)
	}

	var cat *catalog.Store
	if app.config.CatalogPath != "" {
		cat, err = catalog.Open(app.config.CatalogPath)
		if err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer cat.Close()
	}

	app.log.Info("Watching levels", "dir", app.store.Dir())
	err = w.Run(ctx, func(ev watch.Event) {
		app.handleWatchEvent(ctx, cat, ev)
	}, func(err error) {
		app.log.Error("Watch error", "error", err)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleWatchEvent は変更されたステージを再検証して結果を表示する
// cat が nil の場合はカタログを更新しない
func (app *Application) handleWatchEvent(ctx context.Context, cat *catalog.Store, ev watch.Event) {
	if ev.Removed {
		fmt.Fprintf(app.stdout, "Level %d removed\n", ev.LevelID)
		if cat != nil {
			if err := cat.Delete(ctx, ev.LevelID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
				app.log.Error("Failed to remove catalog entry", "levelId", ev.LevelID, "error", err)
			}
		}
		return
	}

	l, err := storage.LoadFile(ev.Path)
	if err != nil {
		app.log.Warn("Failed to load changed level", "path", ev.Path, "error", err)
		return
	}

	key := app.catalogKey(ev.Path, l)
	result := validator.Validate(l)
	status := "valid"
	if !result.IsValid {
		status = "invalid"
	}
	fmt.Fprintf(app.stdout, "Level %d: %s (%d errors, %d warnings)\n", key, status, len(result.Errors), len(result.Warnings))
	for _, issue := range result.Errors {
		fmt.Fprintf(app.stdout, "  - %s\n", issue)
	}

	if cat != nil {
		if err := cat.Upsert(ctx, catalog.EntryFromResult(key, l, ev.Path, result, app.now())); err != nil {
			app.log.Error("Failed to update catalog", "levelId", key, "error", err)
		}
	}
}
