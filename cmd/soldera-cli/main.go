package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"soldera/cmd/soldera-cli/commands"

	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))
	commands.ExecuteContext(context.Background())
}
