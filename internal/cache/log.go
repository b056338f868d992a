package cache

import (
	"log/slog"
)

func logger() *slog.Logger {
	return slog.Default().With("package", "cache")
}
