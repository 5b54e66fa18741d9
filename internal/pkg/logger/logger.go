package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a production logger for prod-like environments and a
// development logger otherwise.
func New(env string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production", "release":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
