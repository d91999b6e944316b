//go:build !linux

package executor

import (
	"errors"

	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
)

// detectCommand has no table outside Linux. Configure set_command explicitly.
func detectCommand(logger *zap.Logger) (Command, error) {
	logger.Warn("Wallpaper setter detection is not implemented for this platform")
	return Command{}, domain.E(domain.KindConfig, "executor.detect",
		errors.New("set_command = \"auto\" is only supported on Linux, configure the command explicitly"))
}
