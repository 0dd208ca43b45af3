package cli

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/zurustar/sheepedit/pkg/config"
)

var testEnv = config.Env{
	LevelsDir: "Assets/Levels2D",
	LogLevel:  "info",
	Locale:    "en",
}

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "validate",
			args: []string{"validate", "3"},
			expected: Config{
				Command:   CmdValidate,
				Args:      []string{"3"},
				LevelsDir: "Assets/Levels2D",
				LogLevel:  "info",
				Locale:    "en",
			},
		},
		{
			name: "ディレクトリ指定（短縮形）",
			args: []string{"-d", "/tmp/levels", "nextid"},
			expected: Config{
				Command:   CmdNextID,
				Args:      []string{},
				LevelsDir: "/tmp/levels",
				LogLevel:  "info",
				Locale:    "en",
			},
		},
		{
			name: "フラグが後ろにある",
			args: []string{"place", "1", "1.2", "2.4", "--type", "3", "--layer", "2"},
			expected: Config{
				Command:   CmdPlace,
				Args:      []string{"1", "1.2", "2.4"},
				LevelsDir: "Assets/Levels2D",
				LogLevel:  "info",
				Locale:    "en",
				CardType:  3,
				Layer:     2,
			},
		},
		{
			name: "負の座標",
			args: []string{"delete", "1", "-1.2", "-2.4", "-l", "debug"},
			expected: Config{
				Command:   CmdDelete,
				Args:      []string{"1", "-1.2", "-2.4"},
				LevelsDir: "Assets/Levels2D",
				LogLevel:  "debug",
				Locale:    "en",
			},
		},
		{
			name: "boolフラグの後の位置引数",
			args: []string{"shape", "--jitter", "2", "star", "--seed=7"},
			expected: Config{
				Command:   CmdShape,
				Args:      []string{"2", "star"},
				LevelsDir: "Assets/Levels2D",
				LogLevel:  "info",
				Locale:    "en",
				Jitter:    true,
				Seed:      7,
			},
		},
		{
			name: "ロケールとカタログ",
			args: []string{"--locale", "zh", "--catalog", "levels.db", "--settings", "s.yaml", "index"},
			expected: Config{
				Command:      CmdIndex,
				Args:         []string{},
				LevelsDir:    "Assets/Levels2D",
				LogLevel:     "info",
				Locale:       "zh",
				CatalogPath:  "levels.db",
				SettingsPath: "s.yaml",
			},
		},
		{
			name: "大文字のコマンドとログレベル",
			args: []string{"--log-level", "WARN", "VALIDATE", "Level2D_1.json"},
			expected: Config{
				Command:   CmdValidate,
				Args:      []string{"Level2D_1.json"},
				LevelsDir: "Assets/Levels2D",
				LogLevel:  "warn",
				Locale:    "en",
			},
		},
		{
			name: "ヘルプ",
			args: []string{"-h"},
			expected: Config{
				LevelsDir: "Assets/Levels2D",
				LogLevel:  "info",
				Locale:    "en",
				ShowHelp:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseArgs(tt.args, testEnv)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.expected.Env = testEnv
			if !reflect.DeepEqual(*cfg, tt.expected) {
				t.Errorf("ParseArgs(%v)\n got: %+v\nwant: %+v", tt.args, *cfg, tt.expected)
			}
		})
	}
}

func TestParseArgs_EnvDefaults(t *testing.T) {
	env := config.Env{LevelsDir: "/env/levels", LogLevel: "error", Locale: "zh", CatalogPath: "env.db"}

	cfg, err := ParseArgs([]string{"index"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LevelsDir != "/env/levels" || cfg.LogLevel != "error" || cfg.Locale != "zh" || cfg.CatalogPath != "env.db" {
		t.Errorf("environment values should be used, got %+v", cfg)
	}

	// フラグが優先される
	cfg, err = ParseArgs([]string{"index", "--dir", "/flag/levels", "-l", "info"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LevelsDir != "/flag/levels" || cfg.LogLevel != "info" {
		t.Errorf("flags should take precedence, got %+v", cfg)
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"コマンドなし", []string{}, "no command"},
		{"不明なコマンド", []string{"launch"}, "unknown command"},
		{"引数不足", []string{"place", "1", "2"}, "expects 3"},
		{"引数過多", []string{"nextid", "5"}, "expects 0"},
		{"不正なログレベル", []string{"--log-level", "verbose", "new"}, "invalid log level"},
		{"負のレイヤー", []string{"place", "1", "0", "0", "--layer", "-1"}, "layer must be non-negative"},
		{"負の種類", []string{"place", "1", "0", "0", "--type", "-2"}, "card type must be non-negative"},
		{"不明なフラグ", []string{"--unknown", "x", "new"}, "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, testEnv)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"フラグのみ", []string{"-l", "debug"}, []string{"-l", "debug"}},
		{"位置引数の後のフラグ", []string{"validate", "1", "-l", "debug"}, []string{"-l", "debug", "validate", "1"}},
		{"負の数", []string{"place", "1", "-3", "-0.5"}, []string{"place", "1", "-3", "-0.5"}},
		{"値に負の数", []string{"place", "--layer", "-1", "1"}, []string{"--layer", "-1", "place", "1"}},
		{"boolフラグ", []string{"--jitter", "shape"}, []string{"--jitter", "shape"}},
		{"イコール形式", []string{"new", "--dir=/x"}, []string{"--dir=/x", "new"}},
		{"ダブルダッシュ", []string{"-l", "info", "--", "validate", "-x"}, []string{"-l", "info", "validate", "-x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs(%v) = %v, want %v", tt.args, got, tt.expected)
			}
		})
	}
}

func TestTypedArgs(t *testing.T) {
	cfg, err := ParseArgs([]string{"place", "4", "-1.5", "abc"}, testEnv)
	if err != nil {
		t.Fatal(err)
	}
	if id, err := cfg.IntArg(0); err != nil || id != 4 {
		t.Errorf("IntArg(0) = %d, %v", id, err)
	}
	if x, err := cfg.FloatArg(1); err != nil || x != -1.5 {
		t.Errorf("FloatArg(1) = %g, %v", x, err)
	}
	if _, err := cfg.FloatArg(2); err == nil {
		t.Error("expected error for non-numeric argument")
	}
	if _, err := cfg.IntArg(1); err == nil {
		t.Error("expected error for non-integer argument")
	}
}

func TestPrintHelp(t *testing.T) {
	var buf bytes.Buffer
	PrintHelp(&buf)
	out := buf.String()
	for cmd := range commandArgs {
		if !strings.Contains(out, "  "+string(cmd)) {
			t.Errorf("help should mention command %q", cmd)
		}
	}
}
