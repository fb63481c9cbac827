package tools

import (
	"github.com/chris/briefing/internal/logging"
	"github.com/rs/zerolog"
)

// logger is resolved per call so it follows logging.Setup.
func logger() *zerolog.Logger {
	l := logging.For("tools")
	return &l
}
