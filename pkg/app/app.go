package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/zurustar/gamelang/pkg/cli"
	"github.com/zurustar/gamelang/pkg/compiler"
	"github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/display"
	"github.com/zurustar/gamelang/pkg/fileutil"
	"github.com/zurustar/gamelang/pkg/logger"
	"github.com/zurustar/gamelang/pkg/repl"
	"github.com/zurustar/gamelang/pkg/report"
	"github.com/zurustar/gamelang/pkg/script"
	"github.com/zurustar/gamelang/pkg/vm"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer

	script  *script.Script
	program *ast.Program
}

// Option はApplicationの設定を変更する
type Option func(*Application)

// WithOutput 標準出力と標準エラー出力の代わりに使う書き込み先を指定
func WithOutput(stdout, stderr io.Writer) Option {
	return func(app *Application) {
		app.stdout = stdout
		app.stderr = stderr
	}
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp || (app.config.ScriptPath == "" && !app.config.REPL && !app.config.DumpConfig) {
		cli.PrintHelp(app.stdout)
		return nil
	}

	if app.config.DumpConfig {
		return cli.DumpConfig(app.stdout, app.config)
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started")

	// 対話モード
	if app.config.REPL {
		repl.RunTerminal(app.stdout,
			repl.WithLogger(app.log),
			repl.WithFPS(app.config.FPS),
			repl.WithEncoding(app.config.Encoding),
			repl.WithColor(!color.NoColor),
		)
		return nil
	}

	// 3. スクリプトの読み込みとコンパイル
	compileErrs, err := app.compile()
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}

	rep := report.New(app.stderr, !color.NoColor)

	// 4. トークン列または構文木の出力
	if app.config.Emit != "" {
		return app.emit(compileErrs)
	}

	if len(compileErrs) > 0 {
		rep.CompileErrors(compileErrs)
		app.log.Warn("Script compiled with errors, running the statements that parsed", "errors", len(compileErrs))
	} else {
		app.log.Info("Script compiled successfully", "statements", len(app.program.Body))
	}

	// 5. 実行
	var runtime *vm.Runtime
	if app.config.Headless {
		runtime = app.runHeadless()
	} else {
		runtime, err = app.runDisplay()
		if err != nil {
			return fmt.Errorf("failed to run display: %w", err)
		}
	}

	// 6. 結果の表示
	rep.Errors(runtime.Errors())
	if app.config.DumpState {
		report.New(app.stdout, false).State(runtime.Context().Snapshot())
	}

	if len(compileErrs) > 0 {
		return fmt.Errorf("%s: %d compile error(s)", app.config.ScriptPath, len(compileErrs))
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithWriter(app.stderr, app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// compile スクリプトを読み込んでコンパイルする
// 読み込みに失敗した場合のみエラーを返し、構文エラーは一覧で返す
func (app *Application) compile() ([]error, error) {
	s, program, errs := compiler.CompileFile(app.config.ScriptPath, app.config.Encoding)
	if s == nil {
		return nil, errs[0]
	}
	app.script = s
	app.program = program

	app.log.Info("Script loaded", "name", s.FileName, "size", s.Size, "encoding", app.config.Encoding)
	app.log.Debug("Script content preview", "name", s.FileName, "preview", truncate(s.Content, 100))
	return errs, nil
}

// emit --emit で指定された形式で出力する
func (app *Application) emit(compileErrs []error) error {
	switch app.config.Emit {
	case cli.EmitTokens:
		tokens, lexErrs := compiler.Tokens(app.script.Content)
		report.New(app.stdout, false).Tokens(tokens)
		compileErrs = lexErrs
	case cli.EmitAST:
		fmt.Fprintln(app.stdout, ast.Dump(app.program))
	}

	if len(compileErrs) > 0 {
		report.New(app.stderr, !color.NoColor).CompileErrors(compileErrs)
		return fmt.Errorf("%s: %d compile error(s)", app.config.ScriptPath, len(compileErrs))
	}
	return nil
}

// runHeadless ウィンドウなしで実行する
// フレームループはタイマーで駆動し、フレーム数上限・タイムアウト・Ctrl+Cで終了する
func (app *Application) runHeadless() *vm.Runtime {
	app.log.Info("Headless mode", "fps", app.config.FPS, "frames", app.config.MaxFrames, "timeout", app.config.Timeout)

	sched := vm.NewTickerScheduler(app.config.FPS, app.config.MaxFrames)
	runtime := vm.New(
		vm.WithLogger(app.log),
		vm.WithScheduler(sched),
		vm.WithHost(vm.WriterHost{W: app.stdout}),
		vm.WithFPS(app.config.FPS),
	)
	runtime.Execute(app.program)

	if runtime.State() != vm.StateFrameLoop {
		return runtime
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	frames := sched.Run(ctx)
	if ctx.Err() == context.DeadlineExceeded {
		app.log.Info("Timeout reached, terminating", "timeout", app.config.Timeout)
	}
	app.log.Info("Headless run finished", "frames", frames)
	runtime.Stop()
	return runtime
}

// runDisplay ウィンドウを開いて実行する
func (app *Application) runDisplay() (*vm.Runtime, error) {
	images, err := display.NewImageLoader(fileutil.NewRealFS(filepath.Dir(app.config.ScriptPath)), display.DefaultCacheSize, app.log)
	if err != nil {
		return nil, err
	}

	game := display.NewGame(
		display.WithSize(app.config.Width, app.config.Height),
		display.WithTimeout(app.config.Timeout),
		display.WithMaxFrames(app.config.MaxFrames),
		display.WithImages(images),
		display.WithLogger(app.log),
		display.WithHUD(app.config.LogLevel == "debug"),
	)
	runtime := vm.New(
		vm.WithLogger(app.log),
		vm.WithScheduler(game),
		vm.WithHost(game),
		vm.WithFPS(app.config.FPS),
	)
	game.SetRuntime(runtime)
	runtime.Execute(app.program)

	if err := display.Run(game, "Gamelang - "+filepath.Base(app.config.ScriptPath), app.config.FPS); err != nil {
		return runtime, err
	}
	return runtime, nil
}

// truncate 文字列を指定した長さで切り詰める
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
