package utils

import (
	"io"

	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs any error under what.
// A nil closer is a no-op, so optional components can be passed as-is.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("component", what), logger.Error(err))
	}
}
