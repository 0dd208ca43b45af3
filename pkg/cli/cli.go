package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zurustar/sheepedit/pkg/config"
)

// Command はサブコマンド名
type Command string

const (
	CmdValidate Command = "validate"
	CmdNew      Command = "new"
	CmdPlace    Command = "place"
	CmdDelete   Command = "delete"
	CmdShape    Command = "shape"
	CmdExport   Command = "export"
	CmdNextID   Command = "nextid"
	CmdIndex    Command = "index"
	CmdWatch    Command = "watch"
	CmdSamples  Command = "samples"
)

// サブコマンドごとの位置引数の数
var commandArgs = map[Command]int{
	CmdValidate: 1,
	CmdNew:      0,
	CmdPlace:    3,
	CmdDelete:   3,
	CmdShape:    2,
	CmdExport:   1,
	CmdNextID:   0,
	CmdIndex:    0,
	CmdWatch:    0,
	CmdSamples:  0,
}

// 値を取らないフラグ
var boolFlags = map[string]bool{
	"h":      true,
	"help":   true,
	"jitter": true,
}

// Config はコマンドライン引数と環境変数から解析された設定を保持する
type Config struct {
	Command      Command
	Args         []string // サブコマンドの位置引数
	LevelsDir    string   // ステージディレクトリ
	LogLevel     string   // ログレベル（debug, info, warn, error）
	Locale       string   // レポートの言語
	CatalogPath  string   // SQLiteカタログ（空なら使わない）
	SettingsPath string   // エディタ設定YAML
	CardType     int      // place で配置するカードの種類
	Layer        int      // place/shape の対象レイヤー
	Jitter       bool     // shape の頂点をランダムにずらす
	Seed         uint64   // jitter の乱数シード（0なら時刻）
	Env          config.Env
	ShowHelp     bool
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// フラグで指定されなかった項目は環境変数の値を使う
func ParseArgs(args []string, env config.Env) (*Config, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("sheepedit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &Config{Env: env}

	fs.StringVar(&cfg.LevelsDir, "dir", env.LevelsDir, "ステージディレクトリ")
	fs.StringVar(&cfg.LevelsDir, "d", env.LevelsDir, "ステージディレクトリ（短縮形）")
	fs.StringVar(&cfg.LogLevel, "log-level", env.LogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&cfg.LogLevel, "l", env.LogLevel, "ログレベル（短縮形）")
	fs.StringVar(&cfg.Locale, "locale", env.Locale, "レポートの言語")
	fs.StringVar(&cfg.CatalogPath, "catalog", env.CatalogPath, "SQLiteカタログのパス")
	fs.StringVar(&cfg.SettingsPath, "settings", env.SettingsPath, "エディタ設定ファイル")
	fs.IntVar(&cfg.CardType, "type", 0, "カードの種類")
	fs.IntVar(&cfg.Layer, "layer", 0, "レイヤー")
	fs.BoolVar(&cfg.Jitter, "jitter", false, "図形の頂点をランダムにずらす")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "乱数シード")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.ShowHelp {
		return cfg, nil
	}

	if fs.NArg() == 0 {
		return nil, fmt.Errorf("no command given")
	}
	cfg.Command = Command(strings.ToLower(fs.Arg(0)))
	want, ok := commandArgs[cfg.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", fs.Arg(0))
	}
	cfg.Args = fs.Args()[1:]
	if len(cfg.Args) != want {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", cfg.Command, want, len(cfg.Args))
	}

	if cfg.CardType < 0 {
		return nil, fmt.Errorf("card type must be non-negative, got %d", cfg.CardType)
	}
	if cfg.Layer < 0 {
		return nil, fmt.Errorf("layer must be non-negative, got %d", cfg.Layer)
	}

	return cfg, nil
}

// IntArg は位置引数を整数として返す
func (c *Config) IntArg(i int) (int, error) {
	v, err := strconv.Atoi(c.Args[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d (%q) is not an integer", i+1, c.Args[i])
	}
	return v, nil
}

// FloatArg は位置引数を実数として返す
func (c *Config) FloatArg(i int) (float64, error) {
	v, err := strconv.ParseFloat(c.Args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d (%q) is not a number", i+1, c.Args[i])
	}
	return v, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
// "-1.5" のような負の数は位置引数として扱う
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isFlag(arg) {
			positional = append(positional, arg)
			continue
		}

		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") || boolFlags[name] {
			continue
		}
		// 値を取るフラグは次の引数を値として扱う（-layer -1 も可）
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	return append(flags, positional...)
}

func isFlag(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(arg, 64); err == nil {
		return false
	}
	return true
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `sheepedit - Sheep 2D level editor toolkit

Usage:
  sheepedit [options] <command> [args]

Commands:
  validate <id|file>      ステージを検証してレポートを表示（不正なら終了コード2）
  new                     次の空きIDで新しいステージを作成して保存
  place <id> <x> <y>      カードを配置（--type, --layer）
  delete <id> <x> <y>     (x, y) に最も近いカードを削除
  shape <id> <preset>     プリセット図形を追加（circle, star, rectangle, triangle; --layer, --jitter）
  export <id>             設定ファイルで有効な形式でエクスポート
  nextid                  次の空きステージIDを表示
  index                   すべてのステージを検証してカタログに登録
  watch                   ステージの変更を監視して再検証（Ctrl+Cで終了）
  samples                 埋め込みのサンプルステージを検証

Options:
  -d, --dir <path>          ステージディレクトリ（デフォルト: Assets/Levels2D）
  -l, --log-level <level>   ログレベル: debug, info, warn, error（デフォルト: info）
  --locale <tag>            レポートの言語: en, zh（デフォルト: en）
  --catalog <path>          SQLiteカタログのパス
  --settings <path>         エディタ設定ファイル（YAML）
  --type <n>                配置するカードの種類（デフォルト: 0）
  --layer <n>               対象レイヤー（デフォルト: 0）
  --jitter                  図形の頂点を ±1 の範囲でずらす
  --seed <n>                jitter の乱数シード
  -h, --help                このヘルプを表示

Environment Variables:
  SHEEPEDIT_LEVELS_DIR      ステージディレクトリ
  SHEEPEDIT_LOG_LEVEL       ログレベル
  SHEEPEDIT_LOCALE          レポートの言語
  SHEEPEDIT_CATALOG         SQLiteカタログのパス
  SHEEPEDIT_SETTINGS        エディタ設定ファイル
  SHEEPEDIT_WATCH_DEBOUNCE  watch のイベント間引き間隔（例: 100ms）

Examples:
  sheepedit validate 3                    Level2D_3.json を検証
  sheepedit --locale zh validate 3        中国語でレポートを表示
  sheepedit place 3 1.2 -2.4 --layer 1    レイヤー1にカードを配置
  sheepedit shape 3 star --layer 2 --jitter
  sheepedit --catalog levels.db index      カタログを更新
`)
}
