package bootstrap

import (
	"context"

	"github.com/ajitpratap0/launchpad/pkg/metrics"
)

// Run runs target once and returns its error unmodified
func Run(ctx context.Context, target Runnable) error {
	return target.Run(ctx)
}

// Boot builds the target and runs it. The target is not run when Build
// fails.
func (b *Builder) Boot(ctx context.Context) error {
	target, err := b.Build(ctx)
	if err != nil {
		metrics.Boots.WithLabelValues("build", metrics.OutcomeFailure).Inc()
		return err
	}

	b.logger.Debug("running target")
	err = Run(ctx, target)
	metrics.Boots.WithLabelValues("run", metrics.Outcome(err)).Inc()
	return err
}
