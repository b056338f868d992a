package maintainer

import (
	"log/slog"
)

func logger() *slog.Logger {
	return slog.Default().With("package", "maintainer")
}
