package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/zurustar/sheepedit/pkg/catalog"
	"github.com/zurustar/sheepedit/pkg/cli"
	"github.com/zurustar/sheepedit/pkg/config"
	"github.com/zurustar/sheepedit/pkg/editor"
	"github.com/zurustar/sheepedit/pkg/fileutil"
	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/logger"
	"github.com/zurustar/sheepedit/pkg/storage"
	"github.com/zurustar/sheepedit/pkg/validator"
)

// ExitCodeInvalid は検証に失敗したときの終了コード
const ExitCodeInvalid = 2

// ErrInvalidLevel はステージが検証に失敗したことを表す
var ErrInvalidLevel = errors.New("level is invalid")

// ExitCodeError は終了コードを伴うエラー
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string { return e.Err.Error() }
func (e *ExitCodeError) Unwrap() error { return e.Err }

// ExitCode はエラーに対応するプロセスの終了コードを返す
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	settings config.Settings
	store    *storage.Store
	log      *slog.Logger
	samples  fs.FS
	stdout   io.Writer
	stderr   io.Writer
	ui       *editor.UIState
	ctx      context.Context
	now      func() time.Time
}

// New Applicationを作成
// samples は samples/Level2D_<id>.json を含む埋め込みファイルシステム（nilでもよい）
func New(samples fs.FS) *Application {
	return &Application{
		samples: samples,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		ui:      &editor.UIState{},
		ctx:     context.Background(),
		now:     time.Now,
	}
}

// SetOutput はレポートとログの出力先を変更する
func (app *Application) SetOutput(stdout, stderr io.Writer) {
	app.stdout = stdout
	app.stderr = stderr
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	if len(args) == 0 {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 1. 環境変数とコマンドライン引数の解析
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	cfg, err := cli.ParseArgs(args, env)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = cfg

	if cfg.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.InitLogger(cfg.LogLevel, app.stderr); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	// 3. エディタ設定とストレージ
	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	app.settings = settings
	app.store = storage.New(cfg.LevelsDir, app.log)

	app.log.Debug("Command started", "command", cfg.Command, "dir", cfg.LevelsDir)

	switch cfg.Command {
	case cli.CmdValidate:
		return app.runValidate()
	case cli.CmdNew:
		return app.runNew()
	case cli.CmdPlace:
		return app.runPlace()
	case cli.CmdDelete:
		return app.runDelete()
	case cli.CmdShape:
		return app.runShape()
	case cli.CmdExport:
		return app.runExport()
	case cli.CmdNextID:
		return app.runNextID()
	case cli.CmdIndex:
		return app.runIndex()
	case cli.CmdWatch:
		return app.runWatch()
	case cli.CmdSamples:
		return app.runSamples()
	}
	return fmt.Errorf("unknown command: %s", cfg.Command)
}

func (app *Application) locale() language.Tag {
	return validator.ParseLocale(app.config.Locale)
}

// loadTarget は ID またはファイルパスからステージを読み込む
func (app *Application) loadTarget(arg string) (*level.Level, string, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		l, err := app.store.Load(id)
		return l, app.store.Path(id), err
	}

	ext := strings.TrimPrefix(filepath.Ext(arg), ".")
	format, err := storage.ParseFormat(ext)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", arg, err)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, "", err
	}
	l, err := storage.Decode(data, format)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", arg, err)
	}
	return l, arg, nil
}

func (app *Application) runValidate() error {
	l, path, err := app.loadTarget(app.config.Args[0])
	if err != nil {
		return err
	}

	result := validator.Validate(l)
	fmt.Fprint(app.stdout, validator.Report(result, app.locale()))

	if app.config.CatalogPath != "" {
		if err := app.withCatalog(func(cat *catalog.Store) error {
			return cat.Upsert(app.ctx, catalog.EntryFromResult(app.catalogKey(path, l), l, path, result, app.now()))
		}); err != nil {
			return err
		}
	}

	if !result.IsValid {
		return &ExitCodeError{Code: ExitCodeInvalid, Err: fmt.Errorf("level %d: %w", l.ID, ErrInvalidLevel)}
	}
	return nil
}

// openSession は既存のステージを編集するセッションを作成する
func (app *Application) openSession() (*editor.Session, error) {
	id, err := app.config.IntArg(0)
	if err != nil {
		return nil, err
	}
	l, err := app.store.Load(id)
	if err != nil {
		return nil, err
	}
	return editor.NewSession(l, app.store, app.settings, app.log), nil
}

// saveIfDirty は自動保存が無効な場合にセッションを保存する
func (app *Application) saveIfDirty(s *editor.Session) error {
	if !s.Dirty() {
		return nil
	}
	_, err := s.Save()
	return err
}

func (app *Application) runNew() error {
	s := editor.NewSession(nil, app.store, app.settings, app.log)
	l, err := s.NewLevel()
	if err != nil {
		return err
	}
	path, err := s.Save()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Created level %d: %s\n", l.ID, path)
	return nil
}

func (app *Application) position() (level.Vec2, error) {
	x, err := app.config.FloatArg(1)
	if err != nil {
		return level.Vec2{}, err
	}
	y, err := app.config.FloatArg(2)
	if err != nil {
		return level.Vec2{}, err
	}
	return level.Vec2{X: x, Y: y}, nil
}

func (app *Application) runPlace() error {
	s, err := app.openSession()
	if err != nil {
		return err
	}
	pos, err := app.position()
	if err != nil {
		return err
	}
	c, err := s.Place(app.ui, pos, app.config.CardType, app.config.Layer)
	if err != nil {
		return fmt.Errorf("cannot place card at %s: %w", pos, err)
	}
	if err := app.saveIfDirty(s); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Placed card %d (type %d) at %s on layer %d\n", c.ID, c.Type, c.Position, c.Layer)
	return nil
}

func (app *Application) runDelete() error {
	s, err := app.openSession()
	if err != nil {
		return err
	}
	pos, err := app.position()
	if err != nil {
		return err
	}
	c, err := s.Delete(app.ui, pos)
	if err != nil {
		return fmt.Errorf("cannot delete card at %s: %w", pos, err)
	}
	if err := app.saveIfDirty(s); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Deleted card %d at %s\n", c.ID, c.Position)
	return nil
}

func (app *Application) runShape() error {
	s, err := app.openSession()
	if err != nil {
		return err
	}
	kind, err := level.ParsePresetKind(app.config.Args[1])
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if app.config.Jitter {
		seed := app.config.Seed
		if seed == 0 {
			seed = uint64(app.now().UnixNano())
		}
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	shape, err := s.AddPresetShape(kind, app.config.Layer, rng)
	if err != nil {
		return err
	}
	if err := app.saveIfDirty(s); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Added %s shape with %d vertices on layer %d\n", kind, len(shape.Vertices), shape.Layer)
	return nil
}

func (app *Application) runExport() error {
	s, err := app.openSession()
	if err != nil {
		return err
	}
	paths, err := s.Export()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(app.stdout, "No export formats enabled")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(app.stdout, p)
	}
	return nil
}

func (app *Application) runNextID() error {
	id, err := app.store.NextLevelID()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, id)
	return nil
}

func (app *Application) runSamples() error {
	if app.samples == nil {
		return errors.New("no embedded samples")
	}
	fsys := fileutil.NewEmbedFS(app.samples, "samples")
	ids, err := storage.ListIDs(fsys)
	if err != nil {
		return err
	}

	invalid := 0
	for _, id := range ids {
		l, err := storage.LoadFS(fsys, storage.FileName(id))
		if err != nil {
			return err
		}
		result := validator.Validate(l)
		if !result.IsValid {
			invalid++
		}
		fmt.Fprintf(app.stdout, "== %s ==\n", l.Name)
		fmt.Fprint(app.stdout, validator.Report(result, app.locale()))
	}
	app.log.Info("Samples validated", "count", len(ids), "invalid", invalid)

	if invalid > 0 {
		return &ExitCodeError{Code: ExitCodeInvalid, Err: fmt.Errorf("%d sample(s): %w", invalid, ErrInvalidLevel)}
	}
	return nil
}
