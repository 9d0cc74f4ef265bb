package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stderrに出力する。
// CLIでは標準出力を表示用に使うため、ログは標準エラーに流す。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}
