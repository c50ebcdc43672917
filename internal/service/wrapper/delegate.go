package wrapper

import (
	"context"

	"github.com/kballard/go-shellquote"

	"github.com/oshokin/composer-wrapper/internal/logger"
)

// Delegate hands control over to executable with args passed through unchanged.
func (w *Wrapper) Delegate(ctx context.Context, executable string, args []string) error {
	logger.DebugKV(ctx, "Delegating", "command", shellquote.Join(append([]string{executable}, args...)...))

	// Nothing buffered may be lost once the process image is replaced.
	_ = logger.FromContext(ctx).Sync()

	return w.execer.Exec(ctx, executable, args)
}
