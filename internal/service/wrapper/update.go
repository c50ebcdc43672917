package wrapper

import (
	"context"
	"os"

	"github.com/oshokin/composer-wrapper/internal/logger"
)

// EnsureUpToDate runs the self-update command once the executable has not been
// modified for the configured interval. Failures are reported as warnings only;
// the run goes on with whatever version is installed.
func (w *Wrapper) EnsureUpToDate(ctx context.Context, executable string) {
	info, err := os.Stat(executable)
	if err != nil {
		logger.WarnKV(ctx, "Unable to check Composer age", "path", executable, "error", err)
		return
	}

	age := w.now().Sub(info.ModTime())
	if age < w.cfg.UpdateInterval {
		logger.DebugKV(ctx, "Composer is fresh enough", "age", age)
		return
	}

	logger.InfoKV(ctx, "Composer is outdated, running self-update", "age", age)

	exitCode, err := w.runner.Run(ctx, executable, w.selfUpdateCommand...)

	switch {
	case err != nil:
		logger.WarnKV(ctx, w.cfg.Messages.SelfUpdateFailed, "error", err)
	case exitCode != 0:
		logger.WarnKV(ctx, w.cfg.Messages.SelfUpdateFailed, "exit_code", exitCode)
	default:
		logger.Info(ctx, "Composer self-update completed")
	}
}
