package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var globalLogger *slog.Logger

// Levels はサポートするログレベル名
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel ログレベル名をslog.Levelに変換
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// NewLogger 指定の出力先とレベルでテキストロガーを作成
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel,
	})
	return slog.New(handler), nil
}

// InitLogger ログレベルに応じてslogを初期化
// ログは標準エラー出力へ書き出し、標準出力はスクリプトの出力に使う
func InitLogger(level string) error {
	return InitLoggerWithWriter(os.Stderr, level)
}

// InitLoggerWithWriter 出力先を指定してslogを初期化
func InitLoggerWithWriter(w io.Writer, level string) error {
	l, err := NewLogger(w, level)
	if err != nil {
		return err
	}

	globalLogger = l
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}

// Discard 何も出力しないロガー
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
