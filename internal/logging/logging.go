// Package logging builds the engine's structured logger: JSON to a file in
// production, readable console output in development, both through zap.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Build constructs a zap.Logger at the given level ("debug", "info",
// "warn", "error"). console selects zap's human-readable development
// encoder; otherwise JSON production encoding is used, written to logFile
// if non-empty or stderr otherwise.
func Build(level string, console bool, logFile string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}

	var cfg zap.Config
	if console {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zapLevel

	if logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	}

	return cfg.Build()
}
