package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/gamelang/pkg/logger"
	"github.com/zurustar/gamelang/pkg/script"
)

// 出力モード（--emit）
const (
	EmitTokens = "tokens"
	EmitAST    = "ast"
)

// デフォルト値
const (
	DefaultFPS      = 60
	DefaultWidth    = 640
	DefaultHeight   = 480
	DefaultLogLevel = "info"
)

// Config はコマンドライン引数・環境変数・設定ファイルから解析された設定を保持する
type Config struct {
	ScriptPath string        // 実行するスクリプトファイルのパス
	Encoding   string        // スクリプトの文字コード
	LogLevel   string        // ログレベル（debug, info, warn, error）
	Headless   bool          // ヘッドレスモード
	Timeout    time.Duration // タイムアウト時間（0は無制限）
	FPS        int           // フレームレート
	MaxFrames  int           // 実行する最大フレーム数（0は無制限）
	Width      int           // ウィンドウ幅
	Height     int           // ウィンドウ高さ
	Emit       string        // tokens または ast を出力して終了
	REPL       bool          // 対話モード
	DumpState  bool          // 実行後に状態を表示
	DumpConfig bool          // 有効な設定をTOMLで表示して終了
	ConfigFile string        // 設定ファイルのパス
	ShowHelp   bool          // ヘルプ表示フラグ
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Encoding: script.EncodingUTF8,
		LogLevel: DefaultLogLevel,
		FPS:      DefaultFPS,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
	}
}

// boolFlags 値を取らないフラグ
var boolFlags = []string{
	"-h", "--h", "-help", "--help",
	"-headless", "--headless",
	"-repl", "--repl",
	"-dump-state", "--dump-state",
	"-dump-config", "--dump-config",
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 優先順位: コマンドラインフラグ > 環境変数 > 設定ファイル > デフォルト値
func ParseArgs(args []string) (*Config, error) {
	return parseArgs(args, os.Getenv)
}

func parseArgs(args []string, getenv func(string) string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("gamelang", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defaults := DefaultConfig()
	flags := *defaults

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&flags.LogLevel, "log-level", defaults.LogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&flags.LogLevel, "l", defaults.LogLevel, "ログレベル（短縮形）")
	fs.BoolVar(&flags.Headless, "headless", false, "ヘッドレスモード")
	fs.IntVar(&flags.FPS, "fps", defaults.FPS, "フレームレート")
	fs.IntVar(&flags.MaxFrames, "frames", 0, "実行する最大フレーム数")
	fs.IntVar(&flags.Width, "width", defaults.Width, "ウィンドウ幅")
	fs.IntVar(&flags.Height, "height", defaults.Height, "ウィンドウ高さ")
	fs.StringVar(&flags.Encoding, "encoding", defaults.Encoding, "スクリプトの文字コード")
	fs.StringVar(&flags.Emit, "emit", "", "tokens または ast を出力して終了")
	fs.BoolVar(&flags.REPL, "repl", false, "対話モード")
	fs.BoolVar(&flags.DumpState, "dump-state", false, "実行後に状態を表示")
	fs.BoolVar(&flags.DumpConfig, "dump-config", false, "有効な設定を表示")
	fs.StringVar(&flags.ConfigFile, "config", "", "設定ファイル（TOML）")
	fs.StringVar(&flags.ConfigFile, "c", "", "設定ファイル（短縮形）")
	fs.BoolVar(&flags.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&flags.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 明示的に指定されたフラグ名を集める
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	config := DefaultConfig()
	config.ConfigFile = flags.ConfigFile

	// 設定ファイル
	if config.ConfigFile != "" {
		if err := LoadConfigFile(config.ConfigFile, config); err != nil {
			return nil, err
		}
	}

	// 環境変数からの設定
	if err := applyEnv(config, getenv); err != nil {
		return nil, err
	}

	// コマンドラインフラグ（明示的に指定されたもののみ）
	if set["timeout"] || set["t"] {
		if timeoutSec < 0 {
			return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
		}
		config.Timeout = time.Duration(timeoutSec) * time.Second
	}
	if set["log-level"] || set["l"] {
		config.LogLevel = flags.LogLevel
	}
	if set["headless"] {
		config.Headless = flags.Headless
	}
	if set["fps"] {
		config.FPS = flags.FPS
	}
	if set["frames"] {
		config.MaxFrames = flags.MaxFrames
	}
	if set["width"] {
		config.Width = flags.Width
	}
	if set["height"] {
		config.Height = flags.Height
	}
	if set["encoding"] {
		config.Encoding = flags.Encoding
	}
	config.Emit = flags.Emit
	config.REPL = flags.REPL
	config.DumpState = flags.DumpState
	config.DumpConfig = flags.DumpConfig
	config.ShowHelp = flags.ShowHelp

	// 位置引数（スクリプトファイルのパス）
	if fs.NArg() > 0 {
		config.ScriptPath = fs.Arg(0)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv 環境変数 HEADLESS, TIMEOUT, LOG_LEVEL, GAMELANG_FPS を反映する
func applyEnv(config *Config, getenv func(string) string) error {
	if headlessEnv := getenv("HEADLESS"); headlessEnv != "" {
		config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
	}

	if timeoutEnv := getenv("TIMEOUT"); timeoutEnv != "" {
		if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
			config.Timeout = time.Duration(t) * time.Second
		}
	}

	if logLevelEnv := getenv("LOG_LEVEL"); logLevelEnv != "" {
		config.LogLevel = strings.ToLower(logLevelEnv)
	}

	if fpsEnv := getenv("GAMELANG_FPS"); fpsEnv != "" {
		fps, err := strconv.Atoi(fpsEnv)
		if err != nil {
			return fmt.Errorf("invalid GAMELANG_FPS: %q", fpsEnv)
		}
		config.FPS = fps
	}
	return nil
}

// Validate 設定値を検証する
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", c.Timeout)
	}

	// ログレベルの検証
	if !slices.Contains(logger.Levels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("frames must be non-negative, got %d", c.MaxFrames)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}

	switch c.Emit {
	case "", EmitTokens, EmitAST:
	default:
		return fmt.Errorf("invalid emit mode: %s (must be tokens or ast)", c.Emit)
	}

	enc, err := script.NormalizeEncoding(c.Encoding)
	if err != nil {
		return err
	}
	c.Encoding = enc
	return nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック
			// （-t 5 のような場合。--timeout=5 の形式は値を含む）
			if strings.Contains(arg, "=") || slices.Contains(boolFlags, arg) {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `gamelang - Gamelang interpreter

Usage:
  gamelang [options] <script.gml>
  gamelang --repl

Arguments:
  script.gml    実行するスクリプトファイル

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（ウィンドウなし）
  --fps <n>                   フレームレート（デフォルト: 60）
  --frames <n>                指定フレーム数で終了（デフォルト: 無制限）
  --width <px>                ウィンドウ幅（デフォルト: 640）
  --height <px>               ウィンドウ高さ（デフォルト: 480）
  --encoding <name>           文字コード: utf-8, shift-jis, euc-jp, utf-16（デフォルト: utf-8）
  --emit <tokens|ast>         トークン列または構文木を出力して終了
  --repl                      対話モード
  --dump-state                実行後に変数とスプライトの状態を表示
  --dump-config               有効な設定をTOML形式で表示して終了
  -c, --config <file>         設定ファイル（TOML）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  GAMELANG_FPS=<n>            フレームレート

Examples:
  gamelang game.gml                        ウィンドウで実行
  gamelang --headless --frames 120 game.gml  120フレーム実行して終了
  gamelang --emit ast game.gml             構文木を表示
  gamelang -c gamelang.toml game.gml       設定ファイルを使用
  HEADLESS=1 gamelang game.gml             環境変数でヘッドレスモード
`)
}
